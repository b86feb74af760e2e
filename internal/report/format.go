// Package report renders household figures for people: yen strings,
// spreadsheets, PDF statements and YAML summaries.
package report

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
)

// FormatYen groups the digits of a whole-yen amount the way ja-JP does, e.g. "1,234,567".
func FormatYen(n int64) string {
	return message.NewPrinter(language.Japanese).Sprintf("%d", n)
}

// Yen is FormatYen with the currency sign.
func Yen(n int64) string {
	return "¥" + FormatYen(n)
}

// Report is everything an export needs. Expenses are the records of the
// summary period, newest first.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Users       []string
	Summary     *ledger.Summary
	Settlement  calculator.Settlement
	Expenses    []models.Expense
}

// TransferLabel renders the single transfer of a two-person settlement.
func TransferLabel(s calculator.Settlement) string {
	if s.UnsettledCount == 0 {
		return "nothing to settle"
	}
	t, ok := s.Transfer()
	if !ok || t.Amount == 0 {
		return "even"
	}
	return t.From + " -> " + t.To + ": " + FormatYen(t.Amount)
}
