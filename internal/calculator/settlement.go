// Package calculator turns expense records into settlement and reporting figures.
//
// Every function here is pure: it reads the snapshot it is handed and returns a
// fresh value. Nothing is cached between calls, so callers simply recompute
// after each change to the record set.
package calculator

import "github.com/mmynk/kakeibo/internal/models"

// MemberBalance is one participant's position in a settlement.
type MemberBalance struct {
	MemberName string
	TotalPaid  int64 // Sum of unsettled expenses this member paid
	NetBalance int64 // TotalPaid - PerPerson. Positive = overpaid, negative = underpaid
}

// Transfer is a single directed payment that evens out two participants.
type Transfer struct {
	From   string // Person who pays
	To     string // Person who receives
	Amount int64
}

// Settlement is the result of CalculateSettlement.
type Settlement struct {
	// Members has one entry per configured user, in configured order.
	Members []MemberBalance

	// TotalAmount is the sum of the members' totals. Payments by unknown payers are not counted.
	TotalAmount int64

	// PerPerson is floor(TotalAmount / number of users). The remainder is not distributed.
	PerPerson int64

	// UnsettledCount is the number of unsettled records considered.
	UnsettledCount int

	// UnsettledIDs lists every unsettled record, for bulk settle.
	UnsettledIDs []string

	// Transfers holds zero or one entry. Only computed for exactly two users.
	Transfers []Transfer
}

// CalculateSettlement computes who owes whom across the unsettled expenses.
//
// Algorithm:
//   - Ignore settled records entirely
//   - total[user] = sum of amounts the user paid; unknown payers are dropped
//   - perPerson = floor(sum(total) / len(users)), zero when there are no users
//   - balance[user] = total[user] - perPerson
//   - With exactly two users A and B, diff = balance[A] - balance[B] and the
//     behind party pays floor(|diff| / 2). No transfer when diff is zero.
//
// The function never fails; an empty user list yields zeroed figures.
func CalculateSettlement(expenses []models.Expense, users []string) Settlement {
	totals := make(map[string]int64, len(users))
	for _, u := range users {
		totals[u] = 0
	}

	result := Settlement{
		UnsettledIDs: []string{},
		Transfers:    []Transfer{},
	}

	for _, e := range expenses {
		if e.Settled {
			continue
		}
		result.UnsettledCount++
		result.UnsettledIDs = append(result.UnsettledIDs, e.ID)
		if _, known := totals[e.Payer]; known {
			totals[e.Payer] += e.Amount
		}
	}

	// A name listed twice shares one total and is only counted once.
	for _, total := range totals {
		result.TotalAmount += total
	}
	if len(users) > 0 {
		result.PerPerson = floorDiv(result.TotalAmount, int64(len(users)))
	}

	result.Members = make([]MemberBalance, len(users))
	for i, u := range users {
		result.Members[i] = MemberBalance{
			MemberName: u,
			TotalPaid:  totals[u],
			NetBalance: totals[u] - result.PerPerson,
		}
	}

	if len(users) == 2 {
		a, b := result.Members[0], result.Members[1]
		diff := a.NetBalance - b.NetBalance
		switch {
		case diff > 0:
			result.Transfers = append(result.Transfers, Transfer{From: b.MemberName, To: a.MemberName, Amount: diff / 2})
		case diff < 0:
			result.Transfers = append(result.Transfers, Transfer{From: a.MemberName, To: b.MemberName, Amount: -diff / 2})
		}
	}

	return result
}

// Totals returns the paid total per member.
func (s Settlement) Totals() map[string]int64 {
	out := make(map[string]int64, len(s.Members))
	for _, m := range s.Members {
		out[m.MemberName] = m.TotalPaid
	}
	return out
}

// Balances returns the net balance per member.
func (s Settlement) Balances() map[string]int64 {
	out := make(map[string]int64, len(s.Members))
	for _, m := range s.Members {
		out[m.MemberName] = m.NetBalance
	}
	return out
}

// Transfer returns the suggested transfer, if any.
func (s Settlement) Transfer() (Transfer, bool) {
	if len(s.Transfers) == 0 {
		return Transfer{}, false
	}
	return s.Transfers[0], true
}

// Even reports whether there is something unsettled but nobody needs to pay.
func (s Settlement) Even() bool {
	if s.UnsettledCount == 0 {
		return false
	}
	t, ok := s.Transfer()
	return !ok || t.Amount == 0
}

// floorDiv divides rounding toward negative infinity. Totals can only be
// negative when a record carries a negative amount, which validation rejects
// but stored data may still contain.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
