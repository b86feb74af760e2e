package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
)

func testReport() Report {
	users := []string{"A", "B"}
	expenses := []models.Expense{
		{ID: "3", Date: "2025-03-10", Payer: "A", Item: "Dinner", Amount: 3000, Category: "外食"},
		{ID: "2", Date: "2025-03-02", Payer: "B", Item: "Soap", Amount: 500, Category: "日用品"},
		{ID: "1", Date: "2025-02-20", Payer: "A", Item: "Rice", Amount: 1000, Category: "食費", Settled: true, SettledAt: 1},
	}
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	return Report{
		Title:       "Test household",
		GeneratedAt: now,
		Users:       users,
		Summary: &ledger.Summary{
			Period:     calculator.PeriodAll,
			Total:      calculator.SumAmounts(expenses),
			Count:      len(expenses),
			Categories: calculator.CategoryTotals(expenses),
			Payers:     calculator.PayerTotals(expenses, users),
			Monthly:    calculator.MonthlySeriesOf(expenses),
		},
		Settlement: calculator.CalculateSettlement(expenses, users),
		Expenses:   expenses,
	}
}

func TestFormatYen(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatYen(tt.in))
	}
	assert.Equal(t, "¥1,250", Yen(1250))
}

func TestTransferLabel(t *testing.T) {
	r := testReport()
	assert.Equal(t, "B -> A: 1,250", TransferLabel(r.Settlement))

	assert.Equal(t, "nothing to settle", TransferLabel(calculator.CalculateSettlement(nil, r.Users)))

	even := calculator.CalculateSettlement([]models.Expense{
		{Payer: "A", Amount: 100},
		{Payer: "B", Amount: 100},
	}, r.Users)
	assert.Equal(t, "even", TransferLabel(even))
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(testReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetExpenses, sheetCategories, sheetMonthly}, f.GetSheetList())

	title, err := f.GetCellValue(sheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Test household", title)

	rows, err := f.GetRows(sheetExpenses, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Item", "Category", "Payer", "Amount", "Settled"}, rows[0])
	assert.Equal(t, "Dinner", rows[1][1])
	assert.Equal(t, "3000", rows[1][4])

	rows, err = f.GetRows(sheetCategories, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"外食", "3000"}, rows[1])

	rows, err = f.GetRows(sheetMonthly, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-02", rows[1][0])
	assert.Equal(t, "2025-03", rows[2][0])
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(testReport(), PDFOptions{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = BuildPDF(testReport(), PDFOptions{FontFile: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}

func TestASCIIOnly(t *testing.T) {
	assert.Equal(t, "Rice ??", asciiOnly("Rice 食費"))
	assert.Equal(t, "plain", asciiOnly("plain"))
}

func TestWriteYAML(t *testing.T) {
	r := testReport()

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, SettlementDocument(r.Settlement)))

	var got SettlementDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Unsettled)
	assert.Equal(t, "¥3,500", got.Total)
	assert.Equal(t, "¥1,750", got.PerPerson)
	assert.Equal(t, "B -> A: 1,250", got.Transfer)
	require.Len(t, got.Members, 2)
	assert.Equal(t, MemberDoc{Name: "A", Paid: "¥3,000", Balance: "¥1,250"}, got.Members[0])

	buf.Reset()
	require.NoError(t, WriteYAML(&buf, SummaryDocument(r.Summary)))
	var summary SummaryDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, "all", summary.Period)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, AmountDoc{Name: "外食", Total: "¥3,000"}, summary.Categories[0])
	assert.Len(t, summary.Monthly, 2)
}
