package calculator

import (
	"fmt"
	"time"

	"github.com/mmynk/kakeibo/internal/models"
)

// Period names a reporting date range relative to "now".
type Period string

const (
	PeriodThisMonth       Period = "this-month"
	PeriodLastMonth       Period = "last-month"
	PeriodLastThreeMonths Period = "last-3-months"
	PeriodAll             Period = "all"
)

// Periods lists the recognized periods in display order.
var Periods = []Period{PeriodThisMonth, PeriodLastMonth, PeriodLastThreeMonths, PeriodAll}

// DateRange is an inclusive range of "YYYY-MM-DD" dates. An empty bound is open.
type DateRange struct {
	Start string
	End   string
}

// Contains reports whether the date falls in the range.
func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// Range resolves the period against now, using now's location for calendar days.
// Unrecognized periods and PeriodAll return an unbounded range.
func (p Period) Range(now time.Time) DateRange {
	year, month, _ := now.Date()
	loc := now.Location()
	firstOf := func(offset int) time.Time {
		return time.Date(year, month+time.Month(offset), 1, 0, 0, 0, 0, loc)
	}

	switch p {
	case PeriodThisMonth:
		return DateRange{
			Start: firstOf(0).Format(models.DateLayout),
			End:   firstOf(1).AddDate(0, 0, -1).Format(models.DateLayout),
		}
	case PeriodLastMonth:
		return DateRange{
			Start: firstOf(-1).Format(models.DateLayout),
			End:   firstOf(0).AddDate(0, 0, -1).Format(models.DateLayout),
		}
	case PeriodLastThreeMonths:
		// No upper bound: records dated in the future are kept.
		return DateRange{Start: firstOf(-2).Format(models.DateLayout)}
	default:
		return DateRange{}
	}
}

// FilterByPeriod returns the expenses whose date falls in the period.
// PeriodAll and unknown periods return the input unchanged.
func FilterByPeriod(expenses []models.Expense, period Period, now time.Time) []models.Expense {
	r := period.Range(now)
	if r.Start == "" && r.End == "" {
		return expenses
	}
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
