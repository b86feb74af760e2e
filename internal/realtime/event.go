// Package realtime propagates expense changes to every device watching a household.
//
// A Hub fans events out to local subscribers (open WatchExpenses streams). A Relay
// carries the same events between server instances over an AMQP fanout exchange,
// so a change written through one instance reaches streams held by another.
// Mirror turns a stream of events back into a local copy of the record list.
package realtime

import (
	"context"
	"time"

	"github.com/mmynk/kakeibo/internal/models"
)

// EventType is the kind of change an Event carries.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one change to a household's expense list.
type Event struct {
	Type    EventType `json:"type"`
	GroupID string    `json:"group_id"`

	// Expense is the full record after the change. Nil for deletes.
	Expense *models.Expense `json:"expense,omitempty"`

	// ExpenseID is always set, including for deletes.
	ExpenseID string `json:"expense_id"`

	// At is the Unix time the change was made.
	At int64 `json:"at"`

	// Origin identifies the server instance that produced the event.
	Origin string `json:"origin,omitempty"`
}

// Inserted builds an insert event.
func Inserted(e models.Expense, at time.Time) Event {
	return Event{Type: EventInsert, GroupID: e.GroupID, Expense: &e, ExpenseID: e.ID, At: at.Unix()}
}

// Updated builds an update event.
func Updated(e models.Expense, at time.Time) Event {
	return Event{Type: EventUpdate, GroupID: e.GroupID, Expense: &e, ExpenseID: e.ID, At: at.Unix()}
}

// Deleted builds a delete event.
func Deleted(groupID, expenseID string, at time.Time) Event {
	return Event{Type: EventDelete, GroupID: groupID, ExpenseID: expenseID, At: at.Unix()}
}

// Valid reports whether the event can be applied.
func (ev Event) Valid() bool {
	if ev.GroupID == "" || ev.ExpenseID == "" {
		return false
	}
	switch ev.Type {
	case EventInsert, EventUpdate:
		return ev.Expense != nil && ev.Expense.ID == ev.ExpenseID
	case EventDelete:
		return true
	}
	return false
}

// Publisher receives change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout publishes to each publisher in order and returns the first error.
// Later publishers still run when an earlier one fails.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
