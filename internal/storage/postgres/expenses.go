package postgres

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
	e.SettledAt = settledAt.Int64
	return e, nil
}

func nullableUnix(ts int64) sql.NullInt64 {
	return sql.NullInt64{Int64: ts, Valid: ts != 0}
}

// CreateExpense persists a new, unsettled expense.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Settled = false
	expense.SettledAt = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NULL, $8)`,
		expense.ID, expense.GroupID, expense.Date, expense.Payer, expense.Item,
		expense.Amount, expense.Category, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *PostgresStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return getExpense(ctx, s.db, id, false)
}

func getExpense(ctx context.Context, q querier, id string, forUpdate bool) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	e, err := scanExpense(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns every expense of a household, newest recorded first.
func (s *PostgresStore) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE household_id = $1 ORDER BY created_at DESC, seq DESC`,
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
func (s *PostgresStore) UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getExpense(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses SET date = $1, payer = $2, item = $3, amount = $4, category = $5 WHERE id = $6`,
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
func (s *PostgresStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
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
func (s *PostgresStore) ToggleSettled(ctx context.Context, id string, now time.Time) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := getExpense(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	e.MarkSettled(!e.Settled, now)

	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET settled = $1, settled_at = $2 WHERE id = $3",
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
func (s *PostgresStore) SettleExpenses(ctx context.Context, groupID string, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+2)
	args = append(args, now.Unix(), groupID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET settled = TRUE, settled_at = $1
		 WHERE household_id = $2 AND NOT settled AND id IN (`+placeholders(3, len(ids))+`)`,
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
