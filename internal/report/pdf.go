package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions tunes BuildPDF.
type PDFOptions struct {
	// FontFile is a TrueType font with Japanese glyphs. Without one the core
	// Arial font is used and characters outside printable ASCII become '?'.
	FontFile string
}

// BuildPDF renders the open settlement followed by the expense table.
func BuildPDF(r Report, opts PDFOptions) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")

	family, text := "Arial", asciiOnly
	if opts.FontFile != "" {
		pdf.AddUTF8Font("kakeibo", "", opts.FontFile)
		pdf.AddUTF8Font("kakeibo", "B", opts.FontFile)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", opts.FontFile, err)
		}
		family, text = "kakeibo", func(s string) string { return s }
	}

	pdf.SetFont(family, "", 12)
	pdf.AddPage()

	title := r.Title
	if title == "" {
		title = "Household expenses"
	}
	pdf.Cell(0, 8, text(title))
	pdf.Ln(10)
	pdf.SetFont(family, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if r.Summary != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s (%s - %s)", r.Summary.Period, r.Summary.Range.Start, r.Summary.Range.End))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Total: JPY %s in %d records", FormatYen(r.Summary.Total), r.Summary.Count))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont(family, "B", 10)
	pdf.Cell(0, 6, "Settlement")
	pdf.Ln(7)
	pdf.CellFormat(60, 6, "Member", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Balance", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, m := range r.Settlement.Members {
		pdf.CellFormat(60, 6, text(m.MemberName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, FormatYen(m.TotalPaid), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, FormatYen(m.NetBalance), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(2)
	pdf.Cell(0, 6, fmt.Sprintf("Per person: JPY %s", FormatYen(r.Settlement.PerPerson)))
	pdf.Ln(5)
	pdf.Cell(0, 6, text("Transfer: "+TransferLabel(r.Settlement)))
	pdf.Ln(10)

	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(25, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Payer", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 6, "Done", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, e := range r.Expenses {
		done := ""
		if e.Settled {
			done = "x"
		}
		pdf.CellFormat(25, 6, e.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, text(e.Item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, text(e.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, text(e.Payer), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, FormatYen(e.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(15, 6, done, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
