// Package models defines the core domain models for kakeibo.
//
// # Models
//
//   - Expense: one recorded expenditure, paid by one participant
//   - ExpensePatch: a partial edit of an Expense
//   - Settings: participant names and category labels for a household
//   - Group: a household of at most two members sharing one ledger
//   - User: a registered account (synchronized mode only)
//
// Participants are identified by display name. An expense whose payer no longer
// matches a configured name (for example after a rename) is still a valid record;
// it simply contributes nothing to per-payer totals.
//
// # Design Principles
//
//  1. Amounts are whole yen (int64), never floating point
//  2. Dates are ISO "YYYY-MM-DD" strings so they compare lexicographically
//  3. Timestamps are Unix seconds; zero means "not set"
//  4. Relationships use ID strings instead of pointers
package models
