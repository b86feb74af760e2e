package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/report"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseWithID accepts the expense ID before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%s: expense id required: %w", fs.Name(), errUsage)
	}
	return id, nil
}

func (a *app) printExpenses(expenses []models.Expense) error {
	if a.yaml {
		return report.WriteYAML(a.out, report.ExpenseDocuments(expenses))
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tITEM\tCATEGORY\tPAYER\tAMOUNT\tSETTLED")
	for _, e := range expenses {
		settled := ""
		if e.Settled {
			settled = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), e.Date, e.Item, e.Category, e.Payer, report.FormatYen(e.Amount), settled)
	}
	return w.Flush()
}

func (a *app) printSettlement(s calculator.Settlement) error {
	if a.yaml {
		return report.WriteYAML(a.out, report.SettlementDocument(s))
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Unsettled\t%d\n", s.UnsettledCount)
	fmt.Fprintf(w, "Total\t%s\n", report.Yen(s.TotalAmount))
	fmt.Fprintf(w, "Per person\t%s\n", report.Yen(s.PerPerson))
	for _, m := range s.Members {
		fmt.Fprintf(w, "%s\tpaid %s\tbalance %s\n", m.MemberName, report.Yen(m.TotalPaid), report.Yen(m.NetBalance))
	}
	if t, ok := s.Transfer(); ok && t.Amount > 0 {
		fmt.Fprintf(w, "Transfer\t%s → %s\t%s\n", t.From, t.To, report.Yen(t.Amount))
	} else if s.Even() {
		fmt.Fprintln(w, "Transfer\teven")
	}
	return w.Flush()
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	snap, err := a.ledger.Snapshot(ctx, localGroupID)
	if err != nil {
		return err
	}
	var payer, category string
	if len(snap.Settings.Users) > 0 {
		payer = snap.Settings.Users[0]
	}
	if len(snap.Settings.Categories) > 0 {
		category = snap.Settings.Categories[0]
	}

	fs := a.newFlagSet("add")
	date := fs.String("date", a.now().Format(models.DateLayout), "date of the expense (YYYY-MM-DD)")
	fs.StringVar(&payer, "payer", payer, "member who paid")
	item := fs.String("item", "", "what was bought")
	amount := fs.Int64("amount", 0, "amount in yen")
	fs.StringVar(&category, "category", category, "category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *item == "" && fs.NArg() > 0 {
		*item = strings.Join(fs.Args(), " ")
	}

	e, err := a.ledger.AddExpense(ctx, localGroupID, ledger.NewExpense{
		Date:     *date,
		Payer:    payer,
		Item:     *item,
		Amount:   *amount,
		Category: category,
	})
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, report.ExpenseDocuments([]models.Expense{*e}))
	}
	fmt.Fprintf(a.out, "Added %s: %s %s %s (%s, %s)\n", shortID(e.ID), e.Date, e.Item, report.Yen(e.Amount), e.Category, e.Payer)
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("list")
	all := fs.Bool("all", false, "include settled expenses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	expenses, err := a.ledger.List(ctx, localGroupID, *all)
	if err != nil {
		return err
	}
	return a.printExpenses(expenses)
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("edit")
	date := fs.String("date", "", "new date (YYYY-MM-DD)")
	payer := fs.String("payer", "", "new payer")
	item := fs.String("item", "", "new item")
	amount := fs.Int64("amount", 0, "new amount in yen")
	category := fs.String("category", "", "new category")
	ref, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	id, err := a.resolveID(ctx, ref)
	if err != nil {
		return err
	}

	var patch models.ExpensePatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date":
			patch.Date = date
		case "payer":
			patch.Payer = payer
		case "item":
			patch.Item = item
		case "amount":
			patch.Amount = amount
		case "category":
			patch.Category = category
		}
	})

	e, err := a.ledger.EditExpense(ctx, localGroupID, id, patch)
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, report.ExpenseDocuments([]models.Expense{*e}))
	}
	fmt.Fprintf(a.out, "Updated %s: %s %s %s (%s, %s)\n", shortID(e.ID), e.Date, e.Item, report.Yen(e.Amount), e.Category, e.Payer)
	return nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	ref, err := parseWithID(a.newFlagSet("delete"), args)
	if err != nil {
		return err
	}
	id, err := a.resolveID(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.ledger.RemoveExpense(ctx, localGroupID, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", shortID(id))
	return nil
}

func cmdToggle(ctx context.Context, a *app, args []string) error {
	ref, err := parseWithID(a.newFlagSet("toggle"), args)
	if err != nil {
		return err
	}
	id, err := a.resolveID(ctx, ref)
	if err != nil {
		return err
	}
	e, err := a.ledger.ToggleSettle(ctx, localGroupID, id)
	if err != nil {
		return err
	}
	state := "unsettled"
	if e.Settled {
		state = "settled"
	}
	fmt.Fprintf(a.out, "%s is now %s\n", shortID(e.ID), state)
	return nil
}

func cmdSettle(ctx context.Context, a *app, args []string) error {
	if err := a.newFlagSet("settle").Parse(args); err != nil {
		return err
	}
	result, err := a.ledger.SettleAll(ctx, localGroupID)
	if err != nil {
		return err
	}
	if result.Count == 0 {
		fmt.Fprintln(a.out, "Nothing to settle")
		return nil
	}
	fmt.Fprintf(a.out, "Settled %d expenses\n", result.Count)
	return a.printSettlement(result.Settlement)
}

func cmdSettlement(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("settlement")
	records := fs.Bool("records", false, "also list the records, open ones first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, expenses, err := a.ledger.SettlementView(ctx, localGroupID)
	if err != nil {
		return err
	}
	if err := a.printSettlement(s); err != nil {
		return err
	}
	if *records && !a.yaml {
		fmt.Fprintln(a.out)
		return a.printExpenses(expenses)
	}
	return nil
}

func parsePeriod(s string) (calculator.Period, error) {
	for _, p := range calculator.Periods {
		if string(p) == s {
			return p, nil
		}
	}
	names := make([]string, len(calculator.Periods))
	for i, p := range calculator.Periods {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unknown period %q: must be one of %s", s, strings.Join(names, ", "))
}

func cmdSummary(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("summary")
	periodFlag := fs.String("period", string(calculator.PeriodThisMonth), "this-month, last-month, last-3-months or all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, err := parsePeriod(*periodFlag)
	if err != nil {
		return err
	}
	s, err := a.ledger.Summary(ctx, localGroupID, period)
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, report.SummaryDocument(s))
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Period\t%s\t%s .. %s\n", s.Period, s.Range.Start, s.Range.End)
	fmt.Fprintf(w, "Total\t%s\t%d records\n", report.Yen(s.Total), s.Count)
	fmt.Fprintln(w, "\nCATEGORY\tTOTAL\t")
	for _, c := range s.Categories {
		fmt.Fprintf(w, "%s\t%s\t\n", c.Category, report.Yen(c.Total))
	}
	fmt.Fprintln(w, "\nPAYER\tTOTAL\t")
	for _, p := range s.Payers {
		fmt.Fprintf(w, "%s\t%s\t\n", p.Payer, report.Yen(p.Total))
	}
	fmt.Fprintln(w, "\nMONTH\tTOTAL\t")
	for _, m := range s.Monthly.Months {
		fmt.Fprintf(w, "%s\t%s\t\n", m.Month, report.Yen(m.Total))
	}
	return w.Flush()
}

func cmdCalendar(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("calendar")
	monthFlag := fs.String("month", a.now().Format("2006-01"), "month to show (YYYY-MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	month, err := time.Parse("2006-01", *monthFlag)
	if err != nil {
		return fmt.Errorf("invalid month %q: use YYYY-MM", *monthFlag)
	}
	c, err := a.ledger.Calendar(ctx, localGroupID, month.Year(), int(month.Month()))
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, report.CalendarDocument(c))
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%04d-%02d\t%s\n", c.Year, c.Month, report.Yen(c.MonthTotal))
	for _, d := range c.Days {
		items := make([]string, len(d.Expenses))
		for i, e := range d.Expenses {
			items[i] = e.Item
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Date, report.Yen(d.Total), strings.Join(items, ", "))
	}
	return w.Flush()
}

func cmdDashboard(ctx context.Context, a *app, args []string) error {
	if err := a.newFlagSet("dashboard").Parse(args); err != nil {
		return err
	}
	d, err := a.ledger.Dashboard(ctx, localGroupID)
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, report.DashboardDocument(d))
	}
	fmt.Fprintf(a.out, "This month: %s in %d records\n\n", report.Yen(d.MonthTotal), d.MonthCount)
	if err := a.printSettlement(d.Settlement); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return a.printExpenses(d.Recent)
}

func cmdSettings(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("settings")
	users := fs.String("users", "", "comma separated member names, renamed in order")
	categories := fs.String("categories", "", "comma separated category list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *users != "" || *categories != "" {
		settings := models.Settings{
			Users:      splitList(*users),
			Categories: splitList(*categories),
		}
		if _, err := a.store.UpdateSettings(ctx, localGroupID, settings); err != nil {
			return err
		}
	}

	snap, err := a.ledger.Snapshot(ctx, localGroupID)
	if err != nil {
		return err
	}
	if a.yaml {
		return report.WriteYAML(a.out, struct {
			Users      []string `yaml:"users"`
			Categories []string `yaml:"categories"`
		}{snap.Settings.Users, snap.Settings.Categories})
	}
	fmt.Fprintf(a.out, "Members:    %s\n", strings.Join(snap.Settings.Users, ", "))
	fmt.Fprintf(a.out, "Categories: %s\n", strings.Join(snap.Settings.Categories, ", "))
	return nil
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("export")
	out := fs.String("out", "", "output file; the extension picks the format unless -format is set")
	format := fs.String("format", "", "xlsx, pdf or yaml")
	periodFlag := fs.String("period", string(calculator.PeriodAll), "this-month, last-month, last-3-months or all")
	font := fs.String("font", "", "TrueType font with Japanese glyphs for pdf")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("export: -out is required: %w", errUsage)
	}
	if *format == "" {
		*format = strings.TrimPrefix(strings.ToLower(filepath.Ext(*out)), ".")
	}
	period, err := parsePeriod(*periodFlag)
	if err != nil {
		return err
	}

	snap, err := a.ledger.Snapshot(ctx, localGroupID)
	if err != nil {
		return err
	}
	summary, err := a.ledger.Summary(ctx, localGroupID, period)
	if err != nil {
		return err
	}
	r := report.Report{
		Title:       snap.Group.Name,
		GeneratedAt: a.now(),
		Users:       snap.Settings.Users,
		Summary:     summary,
		Settlement:  calculator.CalculateSettlement(snap.Expenses, snap.Settings.Users),
		Expenses:    calculator.FilterByPeriod(snap.Expenses, period, a.now()),
	}

	var data []byte
	switch *format {
	case "xlsx":
		data, err = report.BuildXLSX(r)
	case "pdf":
		data, err = report.BuildPDF(r, report.PDFOptions{FontFile: *font})
	case "yaml", "yml":
		var b strings.Builder
		err = report.WriteYAML(&b, struct {
			Summary    report.SummaryDoc    `yaml:"summary"`
			Settlement report.SettlementDoc `yaml:"settlement"`
			Expenses   []report.ExpenseDoc  `yaml:"expenses"`
		}{report.SummaryDocument(summary), report.SettlementDocument(r.Settlement), report.ExpenseDocuments(r.Expenses)})
		data = []byte(b.String())
	default:
		return fmt.Errorf("unknown export format %q: use xlsx, pdf or yaml", *format)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Fprintf(a.out, "Wrote %s (%d records)\n", *out, len(r.Expenses))
	return nil
}
