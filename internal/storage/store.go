// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/kakeibo/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGroupFull is returned when a third member tries to join a household.
	ErrGroupFull = errors.New("group already has two members")
	// ErrAlreadyMember is returned when a user joins a group twice.
	ErrAlreadyMember = errors.New("user is already a member of this group")
	// ErrEmailExists is returned when registering an email twice.
	ErrEmailExists = errors.New("email already registered")
)

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the ledger or service layer.
type Store interface {
	ExpenseStore
	GroupStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

// ExpenseStore persists expense records.
type ExpenseStore interface {
	// CreateExpense persists a new expense. ID and CreatedAt are assigned by the
	// store when empty; the record always starts unsettled.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID. Returns ErrNotFound if missing.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// ListExpenses returns all expenses of a group, newest recorded first.
	ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// UpdateExpense applies a partial edit and returns the updated record.
	UpdateExpense(ctx context.Context, id string, patch models.ExpensePatch) (*models.Expense, error)

	// DeleteExpense removes an expense. Returns ErrNotFound if missing.
	DeleteExpense(ctx context.Context, id string) error

	// ToggleSettled flips the settled flag, setting or clearing SettledAt with it.
	ToggleSettled(ctx context.Context, id string, now time.Time) (*models.Expense, error)

	// SettleExpenses marks the listed unsettled expenses of a group as settled,
	// all with the same timestamp. Returns how many records changed.
	SettleExpenses(ctx context.Context, groupID string, ids []string, now time.Time) (int, error)
}

// GroupStore persists households, their members and categories.
type GroupStore interface {
	// CreateGroup persists a new group with its members and categories.
	// ID and CreatedAt are assigned by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// GetGroupByInviteCode finds a group by its invite code, ignoring case.
	GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error)

	// GetGroupForUser returns the group the user belongs to.
	GetGroupForUser(ctx context.Context, userID string) (*models.Group, error)

	// AddMember appends a member. Returns ErrGroupFull or ErrAlreadyMember.
	AddMember(ctx context.Context, groupID string, member models.Member) error

	// UpdateSettings replaces the category list and renames members by position.
	// Extra names beyond the member count are ignored; empty fields are left as is.
	UpdateSettings(ctx context.Context, groupID string, settings models.Settings) (*models.Group, error)
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrEmailExists on duplicates.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
