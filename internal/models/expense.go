package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the layout of Expense.Date.
const DateLayout = "2006-01-02"

// MaxItemLength bounds the free-text label of an expense.
const MaxItemLength = 200

var (
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrEmptyItem     = errors.New("item cannot be empty")
	ErrItemTooLong   = errors.New("item too long (max 200 characters)")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrEmptyPayer    = errors.New("payer cannot be empty")
)

// Expense is one recorded expenditure.
type Expense struct {
	// ID is the unique identifier (UUID format). Assigned by the store, immutable.
	ID string

	// GroupID is the household this expense belongs to.
	GroupID string

	// Date is the day the expense occurred, "YYYY-MM-DD".
	// Not necessarily the day it was recorded.
	Date string

	// Payer is the display name of the participant who paid.
	Payer string

	// Item is a free-text label, non-empty after trimming.
	Item string

	// Amount is the whole-yen amount. Always > 0 for valid records.
	Amount int64

	// Category is drawn from (but not constrained to) Settings.Categories.
	Category string

	// Settled reports whether this expense has been reconciled between participants.
	Settled bool

	// SettledAt is the Unix timestamp of settlement. Non-zero iff Settled.
	SettledAt int64

	// CreatedAt is the Unix timestamp when the expense was recorded. Immutable.
	CreatedAt int64
}

// Month returns the "YYYY-MM" bucket of the expense date.
func (e Expense) Month() string {
	if len(e.Date) < 7 {
		return e.Date
	}
	return e.Date[:7]
}

// Validate checks the fields a user supplies when recording or editing an expense.
func (e Expense) Validate() error {
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrInvalidDate
	}
	item := strings.TrimSpace(e.Item)
	if item == "" {
		return ErrEmptyItem
	}
	if len([]rune(item)) > MaxItemLength {
		return ErrItemTooLong
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Payer) == "" {
		return ErrEmptyPayer
	}
	return nil
}

// MarkSettled flips the settlement state, keeping SettledAt in step with Settled.
func (e *Expense) MarkSettled(settled bool, at time.Time) {
	e.Settled = settled
	if settled {
		e.SettledAt = at.Unix()
	} else {
		e.SettledAt = 0
	}
}

// ExpensePatch is a partial edit. Nil fields are left unchanged.
// Settlement state is changed only through toggle or bulk settle.
type ExpensePatch struct {
	Date     *string
	Payer    *string
	Item     *string
	Amount   *int64
	Category *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Payer == nil && p.Item == nil && p.Amount == nil && p.Category == nil
}

// Apply returns a copy of e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Payer != nil {
		e.Payer = *p.Payer
	}
	if p.Item != nil {
		e.Item = strings.TrimSpace(*p.Item)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}
