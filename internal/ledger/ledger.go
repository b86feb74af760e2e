// Package ledger is the application layer shared by the RPC services and the CLI.
//
// Every mutation goes to the store first and is then broadcast to the
// configured Publisher. Every read takes a fresh snapshot from the store and
// hands it to the calculator; nothing derived is cached.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/storage"
)

// Notifier is told when a batch of expenses has been settled.
type Notifier interface {
	SettlementCompleted(ctx context.Context, group *models.Group, result SettleResult) error
}

// SettleResult describes one bulk settlement.
type SettleResult struct {
	// Count is the number of records that changed state.
	Count int

	// SettledAt is the shared timestamp stamped on every record.
	SettledAt int64

	// Settlement is the calculation over the records that were settled.
	Settlement calculator.Settlement
}

// Ledger coordinates storage, broadcasting and calculation for households.
type Ledger struct {
	store     storage.Store
	publisher realtime.Publisher
	notifiers []Notifier
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher broadcasts every change to p.
func WithPublisher(p realtime.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithNotifier reports bulk settlements to n. May be given more than once.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		if n != nil {
			l.notifiers = append(l.notifiers, n)
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a Ledger on top of store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snapshot is the full state of one household at a point in time.
type Snapshot struct {
	Group    *models.Group
	Settings models.Settings
	Expenses []models.Expense // Newest recorded first
}

// Snapshot loads the household and all of its records.
func (l *Ledger) Snapshot(ctx context.Context, groupID string) (*Snapshot, error) {
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Group:    group,
		Settings: models.DefaultSettings().Merge(group.Settings()),
		Expenses: expenses,
	}, nil
}

// owned fetches an expense and checks that it belongs to groupID.
func (l *Ledger) owned(ctx context.Context, groupID, id string) (*models.Expense, error) {
	e, err := l.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.GroupID != groupID {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

// publish broadcasts ev. Failures are logged; the change is already stored.
func (l *Ledger) publish(ctx context.Context, ev realtime.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish expense event",
			"error", err,
			"type", ev.Type,
			"group_id", ev.GroupID,
			"expense_id", ev.ExpenseID,
		)
	}
}
