package calculator

import (
	"sort"
	"strings"

	"github.com/mmynk/kakeibo/internal/models"
)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Total    int64
}

// PayerTotal is the amount paid by one configured participant.
type PayerTotal struct {
	Payer string
	Total int64
}

// MonthBucket is one month of the monthly series.
type MonthBucket struct {
	Month      string           // "YYYY-MM"
	Total      int64            // All records of the month
	ByCategory map[string]int64 // Sparse: categories absent that month are omitted
}

// MonthlySeries is the output of MonthlySeriesOf.
type MonthlySeries struct {
	Months     []MonthBucket // Ascending by Month
	Categories []string      // Distinct categories in first-seen order
}

// DayTotal is the calendar cell for one date.
type DayTotal struct {
	Date     string
	Total    int64
	Expenses []models.Expense
}

// SumAmounts returns the total of all amounts.
func SumAmounts(expenses []models.Expense) int64 {
	var sum int64
	for _, e := range expenses {
		sum += e.Amount
	}
	return sum
}

// CategoryTotals sums amounts per category, largest first.
// Ties keep the order in which the categories were first seen.
func CategoryTotals(expenses []models.Expense) []CategoryTotal {
	index := make(map[string]int)
	out := []CategoryTotal{}
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total += e.Amount
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// PayerTotals sums amounts for each configured user, in configured order.
// Payers that are not configured are ignored; users without expenses get zero.
func PayerTotals(expenses []models.Expense, users []string) []PayerTotal {
	totals := make(map[string]int64, len(users))
	for _, u := range users {
		totals[u] = 0
	}
	for _, e := range expenses {
		if _, ok := totals[e.Payer]; ok {
			totals[e.Payer] += e.Amount
		}
	}
	out := make([]PayerTotal, len(users))
	for i, u := range users {
		out[i] = PayerTotal{Payer: u, Total: totals[u]}
	}
	return out
}

// MonthlySeriesOf groups expenses by "YYYY-MM".
func MonthlySeriesOf(expenses []models.Expense) MonthlySeries {
	months := make(map[string]*MonthBucket)
	seen := make(map[string]bool)
	series := MonthlySeries{Months: []MonthBucket{}, Categories: []string{}}

	for _, e := range expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			series.Categories = append(series.Categories, e.Category)
		}
		key := e.Month()
		b, ok := months[key]
		if !ok {
			b = &MonthBucket{Month: key, ByCategory: make(map[string]int64)}
			months[key] = b
		}
		b.Total += e.Amount
		b.ByCategory[e.Category] += e.Amount
	}

	for _, b := range months {
		series.Months = append(series.Months, *b)
	}
	// Keys are zero-padded, so string order is chronological.
	sort.Slice(series.Months, func(i, j int) bool { return series.Months[i].Month < series.Months[j].Month })
	return series
}

// DailyTotals builds the per-date totals shown in the calendar.
func DailyTotals(expenses []models.Expense) map[string]DayTotal {
	days := make(map[string]DayTotal)
	for _, e := range expenses {
		d := days[e.Date]
		d.Date = e.Date
		d.Total += e.Amount
		d.Expenses = append(d.Expenses, e)
		days[e.Date] = d
	}
	return days
}

// MonthTotal sums the expenses dated in the given month.
func MonthTotal(expenses []models.Expense, year int, month int) int64 {
	prefix := monthKey(year, month)
	var sum int64
	for _, e := range expenses {
		if strings.HasPrefix(e.Date, prefix) {
			sum += e.Amount
		}
	}
	return sum
}

// SortForSettlement returns a copy ordered unsettled first, then newest date first.
func SortForSettlement(expenses []models.Expense) []models.Expense {
	out := append([]models.Expense(nil), expenses...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Settled != out[j].Settled {
			return !out[i].Settled
		}
		return out[i].Date > out[j].Date
	})
	return out
}

// Unsettled returns the records not yet settled, preserving order.
func Unsettled(expenses []models.Expense) []models.Expense {
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Settled {
			out = append(out, e)
		}
	}
	return out
}
