package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "summary"
	sheetExpenses   = "expenses"
	sheetCategories = "categories"
	sheetMonthly    = "monthly"

	// numFmtThousands is the built-in "#,##0" format.
	numFmtThousands = 3
)

// BuildXLSX renders the report as a workbook with summary, expenses,
// categories and monthly sheets.
func BuildXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetSummary)
	for _, name := range []string{sheetExpenses, sheetCategories, sheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	s := &sheetWriter{f: f, header: headerStyle, amount: amountStyle}
	s.summary(r)
	s.expenses(r)
	s.categories(r)
	s.monthly(r)
	if s.err != nil {
		return nil, s.err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so the sheet builders read top to bottom.
type sheetWriter struct {
	f      *excelize.File
	header int
	amount int
	err    error
}

func (s *sheetWriter) set(sheet string, col, row int, v any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(sheet, cell, v)
}

func (s *sheetWriter) setAmount(sheet string, col, row int, v int64) {
	s.set(sheet, col, row, v)
	if s.err != nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	s.err = s.f.SetCellStyle(sheet, cell, cell, s.amount)
}

func (s *sheetWriter) headerRow(sheet string, row int, titles ...string) {
	for i, title := range titles {
		s.set(sheet, i+1, row, title)
	}
	if s.err != nil || len(titles) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	s.err = s.f.SetCellStyle(sheet, first, last, s.header)
}

func (s *sheetWriter) widths(sheet string, widths ...float64) {
	for i, w := range widths {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetColWidth(sheet, col, col, w)
	}
}

func (s *sheetWriter) summary(r Report) {
	title := r.Title
	if title == "" {
		title = "Household expenses"
	}
	s.set(sheetSummary, 1, 1, title)
	s.set(sheetSummary, 1, 2, "Generated")
	s.set(sheetSummary, 2, 2, r.GeneratedAt.Format(time.RFC3339))

	row := 4
	if r.Summary != nil {
		s.set(sheetSummary, 1, row, "Period")
		s.set(sheetSummary, 2, row, string(r.Summary.Period))
		row++
		s.set(sheetSummary, 1, row, "From")
		s.set(sheetSummary, 2, row, r.Summary.Range.Start)
		row++
		s.set(sheetSummary, 1, row, "To")
		s.set(sheetSummary, 2, row, r.Summary.Range.End)
		row++
		s.set(sheetSummary, 1, row, "Total")
		s.setAmount(sheetSummary, 2, row, r.Summary.Total)
		row++
		s.set(sheetSummary, 1, row, "Records")
		s.set(sheetSummary, 2, row, r.Summary.Count)
		row += 2
	}

	s.headerRow(sheetSummary, row, "Member", "Paid (unsettled)", "Balance")
	for _, m := range r.Settlement.Members {
		row++
		s.set(sheetSummary, 1, row, m.MemberName)
		s.setAmount(sheetSummary, 2, row, m.TotalPaid)
		s.setAmount(sheetSummary, 3, row, m.NetBalance)
	}
	row += 2
	s.set(sheetSummary, 1, row, "Per person")
	s.setAmount(sheetSummary, 2, row, r.Settlement.PerPerson)
	row++
	s.set(sheetSummary, 1, row, "Transfer")
	s.set(sheetSummary, 2, row, TransferLabel(r.Settlement))
	s.widths(sheetSummary, 18, 28, 14)
}

func (s *sheetWriter) expenses(r Report) {
	s.headerRow(sheetExpenses, 1, "Date", "Item", "Category", "Payer", "Amount", "Settled")
	for i, e := range r.Expenses {
		row := i + 2
		s.set(sheetExpenses, 1, row, e.Date)
		s.set(sheetExpenses, 2, row, e.Item)
		s.set(sheetExpenses, 3, row, e.Category)
		s.set(sheetExpenses, 4, row, e.Payer)
		s.setAmount(sheetExpenses, 5, row, e.Amount)
		s.set(sheetExpenses, 6, row, e.Settled)
	}
	s.widths(sheetExpenses, 12, 30, 14, 14, 12, 9)
}

func (s *sheetWriter) categories(r Report) {
	s.headerRow(sheetCategories, 1, "Category", "Total")
	if r.Summary == nil {
		return
	}
	for i, c := range r.Summary.Categories {
		s.set(sheetCategories, 1, i+2, c.Category)
		s.setAmount(sheetCategories, 2, i+2, c.Total)
	}
	s.widths(sheetCategories, 16, 14)
}

// monthly writes one row per month and one column per category, with the
// month total last. Categories absent in a month are left blank.
func (s *sheetWriter) monthly(r Report) {
	if r.Summary == nil {
		s.headerRow(sheetMonthly, 1, "Month", "Total")
		return
	}
	series := r.Summary.Monthly
	titles := append([]string{"Month"}, series.Categories...)
	titles = append(titles, "Total")
	s.headerRow(sheetMonthly, 1, titles...)
	for i, m := range series.Months {
		row := i + 2
		s.set(sheetMonthly, 1, row, m.Month)
		for j, c := range series.Categories {
			if v, ok := m.ByCategory[c]; ok {
				s.setAmount(sheetMonthly, j+2, row, v)
			}
		}
		s.setAmount(sheetMonthly, len(series.Categories)+2, row, m.Total)
	}
}
