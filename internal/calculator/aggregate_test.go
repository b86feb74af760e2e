package calculator

import (
	"testing"

	"github.com/mmynk/kakeibo/internal/models"
)

func rec(date, payer, category string, amount int64) models.Expense {
	return models.Expense{Date: date, Payer: payer, Item: "x", Category: category, Amount: amount}
}

func TestCategoryTotals(t *testing.T) {
	expenses := []models.Expense{
		rec("2025-01-01", "A", "食費", 1000),
		rec("2025-01-02", "B", "外食", 3000),
		rec("2025-01-03", "A", "食費", 500),
		rec("2025-01-04", "A", "旅行", 1500),
		rec("2025-01-05", "Ghost", "娯楽", 200),
	}

	got := CategoryTotals(expenses)
	want := []CategoryTotal{
		{Category: "外食", Total: 3000},
		{Category: "食費", Total: 1500},
		{Category: "旅行", Total: 1500},
		{Category: "娯楽", Total: 200},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	var sum int64
	for _, c := range got {
		sum += c.Total
	}
	if sum != SumAmounts(expenses) {
		t.Errorf("category sum %d != record sum %d", sum, SumAmounts(expenses))
	}

	if empty := CategoryTotals(nil); len(empty) != 0 {
		t.Errorf("expected no categories for empty input, got %+v", empty)
	}
}

func TestPayerTotals(t *testing.T) {
	expenses := []models.Expense{
		rec("2025-01-01", "B", "食費", 1000),
		rec("2025-01-02", "Ghost", "食費", 9999),
		rec("2025-01-03", "B", "食費", 1),
	}

	got := PayerTotals(expenses, []string{"A", "B"})
	want := []PayerTotal{{Payer: "A", Total: 0}, {Payer: "B", Total: 1001}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := PayerTotals(expenses, nil); len(got) != 0 {
		t.Errorf("expected empty result for no users, got %+v", got)
	}
}

func TestMonthlySeriesOf(t *testing.T) {
	expenses := []models.Expense{
		rec("2025-03-02", "A", "食費", 100),
		rec("2024-12-31", "A", "旅行", 5000),
		rec("2025-03-15", "B", "外食", 250),
		rec("2025-03-20", "B", "食費", 50),
		rec("2025-01-01", "A", "食費", 10),
	}

	got := MonthlySeriesOf(expenses)

	wantMonths := []string{"2024-12", "2025-01", "2025-03"}
	if len(got.Months) != len(wantMonths) {
		t.Fatalf("months = %+v", got.Months)
	}
	var sum int64
	for i, m := range got.Months {
		if m.Month != wantMonths[i] {
			t.Errorf("month[%d] = %s, want %s", i, m.Month, wantMonths[i])
		}
		sum += m.Total
	}
	if sum != SumAmounts(expenses) {
		t.Errorf("series sum %d != record sum %d", sum, SumAmounts(expenses))
	}

	march := got.Months[2]
	if march.Total != 400 || march.ByCategory["食費"] != 150 || march.ByCategory["外食"] != 250 {
		t.Errorf("march = %+v", march)
	}
	if _, ok := march.ByCategory["旅行"]; ok {
		t.Error("absent category should be omitted, not zero")
	}

	wantCats := []string{"食費", "旅行", "外食"}
	if len(got.Categories) != len(wantCats) {
		t.Fatalf("categories = %v", got.Categories)
	}
	for i := range wantCats {
		if got.Categories[i] != wantCats[i] {
			t.Errorf("categories[%d] = %s, want %s", i, got.Categories[i], wantCats[i])
		}
	}

	empty := MonthlySeriesOf(nil)
	if len(empty.Months) != 0 || len(empty.Categories) != 0 {
		t.Errorf("expected empty series, got %+v", empty)
	}
}

func TestDailyTotalsAndMonthTotal(t *testing.T) {
	expenses := []models.Expense{
		rec("2025-02-01", "A", "食費", 100),
		rec("2025-02-01", "B", "食費", 200),
		rec("2025-02-14", "A", "外食", 3000),
		rec("2025-03-01", "A", "食費", 7),
	}

	days := DailyTotals(expenses)
	if d := days["2025-02-01"]; d.Total != 300 || len(d.Expenses) != 2 {
		t.Errorf("2025-02-01 = %+v", d)
	}
	if _, ok := days["2025-02-02"]; ok {
		t.Error("days without expenses should be absent")
	}

	if got := MonthTotal(expenses, 2025, 2); got != 3300 {
		t.Errorf("MonthTotal(Feb) = %d, want 3300", got)
	}
	if got := MonthTotal(expenses, 2025, 4); got != 0 {
		t.Errorf("MonthTotal(Apr) = %d, want 0", got)
	}
}

func TestSortForSettlement(t *testing.T) {
	a := rec("2025-01-01", "A", "食費", 1)
	b := settled(rec("2025-05-01", "A", "食費", 2))
	c := rec("2025-03-01", "A", "食費", 3)

	input := []models.Expense{a, b, c}
	got := SortForSettlement(input)

	wantAmounts := []int64{3, 1, 2}
	for i, w := range wantAmounts {
		if got[i].Amount != w {
			t.Errorf("[%d] amount = %d, want %d", i, got[i].Amount, w)
		}
	}
	if input[0].Amount != 1 {
		t.Error("input slice was reordered")
	}
	if u := Unsettled(input); len(u) != 2 {
		t.Errorf("Unsettled = %d records, want 2", len(u))
	}
}
