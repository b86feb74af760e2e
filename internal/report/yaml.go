package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
)

// MemberDoc is one settlement member as printed by the CLI.
type MemberDoc struct {
	Name    string `yaml:"name"`
	Paid    string `yaml:"paid"`
	Balance string `yaml:"balance"`
}

// SettlementDoc is the YAML form of a settlement.
type SettlementDoc struct {
	Unsettled int         `yaml:"unsettled"`
	Total     string      `yaml:"total"`
	PerPerson string      `yaml:"per_person"`
	Members   []MemberDoc `yaml:"members"`
	Transfer  string      `yaml:"transfer"`
}

// AmountDoc is a labelled amount.
type AmountDoc struct {
	Name  string `yaml:"name"`
	Total string `yaml:"total"`
}

// SummaryDoc is the YAML form of a period summary.
type SummaryDoc struct {
	Period     string      `yaml:"period"`
	From       string      `yaml:"from,omitempty"`
	To         string      `yaml:"to,omitempty"`
	Total      string      `yaml:"total"`
	Count      int         `yaml:"count"`
	Categories []AmountDoc `yaml:"categories"`
	Payers     []AmountDoc `yaml:"payers"`
	Monthly    []AmountDoc `yaml:"monthly"`
}

// ExpenseDoc is one record as printed by the CLI.
type ExpenseDoc struct {
	ID       string `yaml:"id"`
	Date     string `yaml:"date"`
	Item     string `yaml:"item"`
	Category string `yaml:"category"`
	Payer    string `yaml:"payer"`
	Amount   int64  `yaml:"amount"`
	Settled  bool   `yaml:"settled"`
}

// CalendarDoc is the YAML form of one month of daily totals.
type CalendarDoc struct {
	Month string      `yaml:"month"`
	Total string      `yaml:"total"`
	Days  []AmountDoc `yaml:"days"`
}

// DashboardDoc is the YAML form of the dashboard.
type DashboardDoc struct {
	MonthTotal string        `yaml:"month_total"`
	MonthCount int           `yaml:"month_count"`
	Settlement SettlementDoc `yaml:"settlement"`
	Recent     []string      `yaml:"recent"`
}

func ExpenseDocuments(expenses []models.Expense) []ExpenseDoc {
	docs := make([]ExpenseDoc, 0, len(expenses))
	for _, e := range expenses {
		docs = append(docs, ExpenseDoc{
			ID:       e.ID,
			Date:     e.Date,
			Item:     e.Item,
			Category: e.Category,
			Payer:    e.Payer,
			Amount:   e.Amount,
			Settled:  e.Settled,
		})
	}
	return docs
}

func CalendarDocument(c *ledger.Calendar) CalendarDoc {
	doc := CalendarDoc{
		Month: fmt.Sprintf("%04d-%02d", c.Year, c.Month),
		Total: Yen(c.MonthTotal),
		Days:  []AmountDoc{},
	}
	for _, d := range c.Days {
		doc.Days = append(doc.Days, AmountDoc{Name: d.Date, Total: Yen(d.Total)})
	}
	return doc
}

func SettlementDocument(s calculator.Settlement) SettlementDoc {
	doc := SettlementDoc{
		Unsettled: s.UnsettledCount,
		Total:     Yen(s.TotalAmount),
		PerPerson: Yen(s.PerPerson),
		Members:   []MemberDoc{},
		Transfer:  TransferLabel(s),
	}
	for _, m := range s.Members {
		doc.Members = append(doc.Members, MemberDoc{Name: m.MemberName, Paid: Yen(m.TotalPaid), Balance: Yen(m.NetBalance)})
	}
	return doc
}

func SummaryDocument(s *ledger.Summary) SummaryDoc {
	doc := SummaryDoc{
		Period:     string(s.Period),
		From:       s.Range.Start,
		To:         s.Range.End,
		Total:      Yen(s.Total),
		Count:      s.Count,
		Categories: []AmountDoc{},
		Payers:     []AmountDoc{},
		Monthly:    []AmountDoc{},
	}
	for _, c := range s.Categories {
		doc.Categories = append(doc.Categories, AmountDoc{Name: c.Category, Total: Yen(c.Total)})
	}
	for _, p := range s.Payers {
		doc.Payers = append(doc.Payers, AmountDoc{Name: p.Payer, Total: Yen(p.Total)})
	}
	for _, m := range s.Monthly.Months {
		doc.Monthly = append(doc.Monthly, AmountDoc{Name: m.Month, Total: Yen(m.Total)})
	}
	return doc
}

func DashboardDocument(d *ledger.Dashboard) DashboardDoc {
	doc := DashboardDoc{
		MonthTotal: Yen(d.MonthTotal),
		MonthCount: d.MonthCount,
		Settlement: SettlementDocument(d.Settlement),
		Recent:     []string{},
	}
	for _, e := range d.Recent {
		doc.Recent = append(doc.Recent, fmt.Sprintf("%s %s %s (%s, %s)", e.Date, e.Item, Yen(e.Amount), e.Category, e.Payer))
	}
	return doc
}

// WriteYAML encodes v with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
