package models

import "errors"

// MaxGroupMembers is the number of people who can share one household ledger.
const MaxGroupMembers = 2

// Group is a household sharing one expense ledger.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the household.
	Name string

	// InviteCode is the short code a partner enters to join (6 chars, [0-9A-Z]).
	InviteCode string

	// Members are the participants in join order.
	Members []Member

	// Categories are the category labels in display order.
	Categories []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is one participant of a group.
type Member struct {
	// UserID references the account of the member. Empty for local (offline) households.
	UserID string

	// DisplayName is the name used as Expense.Payer.
	DisplayName string
}

// Settings derives the aggregation settings from the group.
func (g *Group) Settings() Settings {
	users := make([]string, len(g.Members))
	for i, m := range g.Members {
		users[i] = m.DisplayName
	}
	return Settings{
		Users:      users,
		Categories: append([]string(nil), g.Categories...),
	}
}

// HasMember reports whether the user is part of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID != "" && m.UserID == userID {
			return true
		}
	}
	return false
}

// Full reports whether no more members can join.
func (g *Group) Full() bool {
	return len(g.Members) >= MaxGroupMembers
}

// ErrDuplicateMemberName is returned when two members of a household would share a display name.
var ErrDuplicateMemberName = errors.New("member names must be distinct within a household")

// CheckNewMember reports whether name can join next to the current members.
func (g *Group) CheckNewMember(name string) error {
	for _, m := range g.Members {
		if m.DisplayName == name {
			return ErrDuplicateMemberName
		}
	}
	return nil
}

// Rename applies a position-wise rename: users[i] replaces the name of member i,
// members past the end of users keep theirs. The resulting names must be distinct.
func (g *Group) Rename(users []string) ([]Member, error) {
	out := append([]Member(nil), g.Members...)
	for i := 0; i < len(out) && i < len(users); i++ {
		out[i].DisplayName = users[i]
	}
	seen := make(map[string]bool, len(out))
	for _, m := range out {
		if seen[m.DisplayName] {
			return nil, ErrDuplicateMemberName
		}
		seen[m.DisplayName] = true
	}
	return out, nil
}
