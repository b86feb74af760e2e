package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/models"
)

// RecentLimit is the number of records shown on the dashboard.
const RecentLimit = 5

// Summary is the chart data for one reporting period.
type Summary struct {
	Period     calculator.Period
	Range      calculator.DateRange
	Total      int64
	Count      int
	Categories []calculator.CategoryTotal
	Payers     []calculator.PayerTotal
	Monthly    calculator.MonthlySeries
}

// Calendar is one month of daily totals.
type Calendar struct {
	Year       int
	Month      int
	MonthTotal int64
	Days       []calculator.DayTotal // Only days with records, ascending
}

// Dashboard is the home screen: this month at a glance plus the open settlement.
type Dashboard struct {
	Users      []string
	MonthTotal int64
	MonthCount int
	Settlement calculator.Settlement
	Recent     []models.Expense
}

// Settlement computes the open settlement of the household.
func (l *Ledger) Settlement(ctx context.Context, groupID string) (calculator.Settlement, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return calculator.Settlement{}, err
	}
	return calculator.CalculateSettlement(snap.Expenses, snap.Settings.Users), nil
}

// SettlementView returns the settlement with the records in settlement order:
// unsettled first, then newest date first.
func (l *Ledger) SettlementView(ctx context.Context, groupID string) (calculator.Settlement, []models.Expense, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return calculator.Settlement{}, nil, err
	}
	return calculator.CalculateSettlement(snap.Expenses, snap.Settings.Users),
		calculator.SortForSettlement(snap.Expenses), nil
}

// Summary aggregates the records dated in period.
func (l *Ledger) Summary(ctx context.Context, groupID string, period calculator.Period) (*Summary, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	filtered := calculator.FilterByPeriod(snap.Expenses, period, now)
	return &Summary{
		Period:     period,
		Range:      period.Range(now),
		Total:      calculator.SumAmounts(filtered),
		Count:      len(filtered),
		Categories: calculator.CategoryTotals(filtered),
		Payers:     calculator.PayerTotals(filtered, snap.Settings.Users),
		Monthly:    calculator.MonthlySeriesOf(filtered),
	}, nil
}

// Calendar builds the daily totals of one month.
func (l *Ledger) Calendar(ctx context.Context, groupID string, year, month int) (*Calendar, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	prefix := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	var inMonth []models.Expense
	for _, e := range snap.Expenses {
		if strings.HasPrefix(e.Date, prefix) {
			inMonth = append(inMonth, e)
		}
	}

	cal := &Calendar{
		Year:       year,
		Month:      month,
		MonthTotal: calculator.MonthTotal(snap.Expenses, year, month),
		Days:       []calculator.DayTotal{},
	}
	for _, d := range calculator.DailyTotals(inMonth) {
		cal.Days = append(cal.Days, d)
	}
	sort.Slice(cal.Days, func(i, j int) bool { return cal.Days[i].Date < cal.Days[j].Date })
	return cal, nil
}

// Dashboard summarizes the current month and the open settlement.
func (l *Ledger) Dashboard(ctx context.Context, groupID string) (*Dashboard, error) {
	snap, err := l.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	thisMonth := calculator.FilterByPeriod(snap.Expenses, calculator.PeriodThisMonth, l.now())

	recent := snap.Expenses
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return &Dashboard{
		Users:      snap.Settings.Users,
		MonthTotal: calculator.SumAmounts(thisMonth),
		MonthCount: len(thisMonth),
		Settlement: calculator.CalculateSettlement(snap.Expenses, snap.Settings.Users),
		Recent:     append([]models.Expense(nil), recent...),
	}, nil
}

// List returns the household's records, newest recorded first. Settled records
// are hidden unless includeSettled is set.
func (l *Ledger) List(ctx context.Context, groupID string, includeSettled bool) ([]models.Expense, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if includeSettled {
		return expenses, nil
	}
	return calculator.Unsettled(expenses), nil
}
