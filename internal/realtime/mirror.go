package realtime

import "github.com/mmynk/kakeibo/internal/models"

// Apply returns a new record list with ev applied to snapshot. The snapshot is
// ordered newest first, so inserts go to the front. Events for another
// household, or that are malformed, leave the list unchanged.
func Apply(snapshot []models.Expense, ev Event) []models.Expense {
	out := make([]models.Expense, 0, len(snapshot)+1)
	if !ev.Valid() {
		return append(out, snapshot...)
	}

	switch ev.Type {
	case EventInsert:
		if indexOf(snapshot, ev.ExpenseID) >= 0 {
			return append(out, snapshot...)
		}
		out = append(out, *ev.Expense)
		return append(out, snapshot...)
	case EventUpdate:
		for _, e := range snapshot {
			if e.ID == ev.ExpenseID {
				e = *ev.Expense
			}
			out = append(out, e)
		}
		return out
	case EventDelete:
		for _, e := range snapshot {
			if e.ID != ev.ExpenseID {
				out = append(out, e)
			}
		}
		return out
	}
	return append(out, snapshot...)
}

// Mirror keeps a local copy of one household's records in step with events.
// It is not safe for concurrent use.
type Mirror struct {
	groupID  string
	expenses []models.Expense
}

// NewMirror starts a mirror from a full snapshot.
func NewMirror(groupID string, snapshot []models.Expense) *Mirror {
	return &Mirror{groupID: groupID, expenses: append([]models.Expense(nil), snapshot...)}
}

// Apply folds one event into the mirror. Events for other households are ignored.
func (m *Mirror) Apply(ev Event) {
	if ev.GroupID != m.groupID {
		return
	}
	m.expenses = Apply(m.expenses, ev)
}

// Reset replaces the mirror contents, e.g. after a reconnect.
func (m *Mirror) Reset(snapshot []models.Expense) {
	m.expenses = append([]models.Expense(nil), snapshot...)
}

// Expenses returns a copy of the current records.
func (m *Mirror) Expenses() []models.Expense {
	return append([]models.Expense(nil), m.expenses...)
}

func indexOf(expenses []models.Expense, id string) int {
	for i, e := range expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}
