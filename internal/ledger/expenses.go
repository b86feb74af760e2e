package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/storage"
)

// ErrEmptyPatch is returned when an edit changes nothing.
var ErrEmptyPatch = errors.New("nothing to update")

// NewExpense is the user input for recording an expense.
type NewExpense struct {
	Date     string
	Payer    string
	Item     string
	Amount   int64
	Category string
}

// AddExpense validates and records a new expense for the household.
func (l *Ledger) AddExpense(ctx context.Context, groupID string, in NewExpense) (*models.Expense, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:   groupID,
		Date:      strings.TrimSpace(in.Date),
		Payer:     in.Payer,
		Item:      strings.TrimSpace(in.Item),
		Amount:    in.Amount,
		Category:  in.Category,
		CreatedAt: l.now().Unix(),
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Expense recorded",
		"group_id", groupID,
		"expense_id", expense.ID,
		"payer", expense.Payer,
		"amount", expense.Amount,
	)
	l.publish(ctx, realtime.Inserted(*expense, l.now()))
	return expense, nil
}

// EditExpense applies a partial edit. The merged record must still be valid.
func (l *Ledger) EditExpense(ctx context.Context, groupID, id string, patch models.ExpensePatch) (*models.Expense, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	current, err := l.owned(ctx, groupID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(*current).Validate(); err != nil {
		return nil, err
	}

	updated, err := l.store.UpdateExpense(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, realtime.Updated(*updated, l.now()))
	return updated, nil
}

// RemoveExpense deletes an expense of the household.
func (l *Ledger) RemoveExpense(ctx context.Context, groupID, id string) error {
	if _, err := l.owned(ctx, groupID, id); err != nil {
		return err
	}
	if err := l.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Expense deleted", "group_id", groupID, "expense_id", id)
	l.publish(ctx, realtime.Deleted(groupID, id, l.now()))
	return nil
}

// ToggleSettle flips the settled state of one expense.
func (l *Ledger) ToggleSettle(ctx context.Context, groupID, id string) (*models.Expense, error) {
	if _, err := l.owned(ctx, groupID, id); err != nil {
		return nil, err
	}
	now := l.now()
	e, err := l.store.ToggleSettled(ctx, id, now)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, realtime.Updated(*e, now))
	return e, nil
}

// Settle marks the listed expenses settled with one shared timestamp.
// Ids that are unknown, already settled or belong to another household are skipped.
func (l *Ledger) Settle(ctx context.Context, groupID string, ids []string) (*SettleResult, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var targets []models.Expense
	for _, e := range snap.Expenses {
		if wanted[e.ID] && !e.Settled {
			targets = append(targets, e)
		}
	}

	now := l.now()
	result := &SettleResult{
		SettledAt:  now.Unix(),
		Settlement: calculator.CalculateSettlement(targets, snap.Settings.Users),
	}
	if len(targets) == 0 {
		return result, nil
	}

	targetIDs := make([]string, len(targets))
	for i, e := range targets {
		targetIDs[i] = e.ID
	}
	n, err := l.store.SettleExpenses(ctx, groupID, targetIDs, now)
	if err != nil {
		return nil, err
	}
	result.Count = n

	settled := make([]models.Expense, len(targets))
	for i, e := range targets {
		e.MarkSettled(true, now)
		settled[i] = e
	}
	if n != len(targets) {
		// A concurrent toggle or delete won some rows; report what was stored.
		var paid []models.Expense
		settled, paid, err = l.settledAt(ctx, targets, now)
		if err != nil {
			return nil, err
		}
		result.Settlement = calculator.CalculateSettlement(paid, snap.Settings.Users)
	}

	l.logger.InfoContext(ctx, "Expenses settled",
		"group_id", groupID,
		"count", n,
		"total", result.Settlement.TotalAmount,
	)
	for _, e := range settled {
		l.publish(ctx, realtime.Updated(e, now))
	}

	if n > 0 {
		for _, notifier := range l.notifiers {
			if err := notifier.SettlementCompleted(ctx, snap.Group, *result); err != nil {
				l.logger.WarnContext(ctx, "Failed to send settlement notification", "group_id", groupID, "error", err)
			}
		}
	}
	return result, nil
}

// settledAt re-reads targets and keeps those stored as settled at now. It
// returns the stored records and their pre-settlement copies.
func (l *Ledger) settledAt(ctx context.Context, targets []models.Expense, now time.Time) ([]models.Expense, []models.Expense, error) {
	var stored, before []models.Expense
	for _, e := range targets {
		cur, err := l.store.GetExpense(ctx, e.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if cur.Settled && cur.SettledAt == now.Unix() {
			stored = append(stored, *cur)
			before = append(before, e)
		}
	}
	return stored, before, nil
}

// SettleAll settles every unsettled expense of the household.
func (l *Ledger) SettleAll(ctx context.Context, groupID string) (*SettleResult, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s := calculator.CalculateSettlement(snap.Expenses, snap.Settings.Users)
	return l.Settle(ctx, groupID, s.UnsettledIDs)
}
