package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
)

const expenseColumns = "id, household_id, date, payer, item, amount, category, settled, settled_at, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var settledAt sql.NullInt64
	if err := row.Scan(&e.ID, &e.GroupID, &e.Date, &e.Payer, &e.Item, &e.Amount,
		&e.Category, &e.Settled, &settledAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	if settledAt.Valid {
		e.SettledAt = settledAt.Int64
	}
	return e, nil
}

func nullableUnix(ts int64) any {
	if ts == 0 {
		return nil
	}
	return ts
}

// CreateExpense persists a new expense to the database.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Settled = false
	expense.SettledAt = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`,
		expense.ID, expense.GroupID, expense.Date, expense.Payer, expense.Item,
		expense.Amount, expense.Category, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return getExpense(ctx, s.db, id)
}

func getExpense(ctx context.Context, q querier, id string) (*models.Expense, error) {
	e, err := scanExpense(q.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns every expense of a household, newest recorded first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE household_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense applies a partial edit to an expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getExpense(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses SET date = ?, payer = ?, item = ?, amount = ?, category = ? WHERE id = ?`,
		updated.Date, updated.Payer, updated.Item, updated.Amount, updated.Category, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &updated, nil
}

// DeleteExpense removes an expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ToggleSettled flips the settled state of one expense.
func (s *SQLiteStore) ToggleSettled(ctx context.Context, id string, now time.Time) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := getExpense(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	e.MarkSettled(!e.Settled, now)

	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET settled = ?, settled_at = ? WHERE id = ?",
		e.Settled, nullableUnix(e.SettledAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

// SettleExpenses marks the listed unsettled expenses of a household as settled.
func (s *SQLiteStore) SettleExpenses(ctx context.Context, groupID string, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+2)
	args = append(args, now.Unix(), groupID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET settled = 1, settled_at = ?
		 WHERE household_id = ? AND settled = 0 AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to settle expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count settled expenses: %w", err)
	}
	return int(n), nil
}
