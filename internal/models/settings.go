package models

// Settings is the per-household configuration handed to every aggregation call.
type Settings struct {
	// Users is the ordered list of participant display names.
	// Transfers are only computed when there are exactly two.
	Users []string

	// Categories is the ordered list of known category labels.
	Categories []string
}

// DefaultSettings returns the settings of a freshly created household.
func DefaultSettings() Settings {
	return Settings{
		Users:      []string{"パートナー1", "パートナー2"},
		Categories: DefaultCategories(),
	}
}

// DefaultCategories returns the category labels a new household starts with.
func DefaultCategories() []string {
	return []string{"食費", "日用品", "旅行", "娯楽", "交通費", "外食", "光熱費", "その他"}
}

// Merge overlays the non-empty fields of override onto s.
func (s Settings) Merge(override Settings) Settings {
	out := Settings{
		Users:      append([]string(nil), s.Users...),
		Categories: append([]string(nil), s.Categories...),
	}
	if len(override.Users) > 0 {
		out.Users = append([]string(nil), override.Users...)
	}
	if len(override.Categories) > 0 {
		out.Categories = append([]string(nil), override.Categories...)
	}
	return out
}
