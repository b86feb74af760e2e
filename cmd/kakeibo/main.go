// Command kakeibo records and settles household expenses in a local SQLite
// file, without a server or accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
	"github.com/mmynk/kakeibo/internal/storage/sqlite"
	"github.com/mmynk/kakeibo/pkg/logging"
)

// localGroupID is the single household of an offline database.
const localGroupID = "local"

var errUsage = errors.New("usage")

type app struct {
	ledger *ledger.Ledger
	store  storage.Store
	out    io.Writer
	yaml   bool
	now    func() time.Time
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"add":        {"record an expense", cmdAdd},
	"list":       {"list expenses, unsettled only unless -all", cmdList},
	"edit":       {"change fields of an expense", cmdEdit},
	"delete":     {"delete an expense", cmdDelete},
	"toggle":     {"flip the settled flag of an expense", cmdToggle},
	"settle":     {"settle every open expense", cmdSettle},
	"settlement": {"show who owes whom", cmdSettlement},
	"summary":    {"totals by category, payer and month", cmdSummary},
	"calendar":   {"daily totals of a month", cmdCalendar},
	"dashboard":  {"this month at a glance", cmdDashboard},
	"settings":   {"show or change member names and categories", cmdSettings},
	"export":     {"write an xlsx, pdf or yaml report", cmdExport},
	"watch":      {"follow a household on a server", cmdWatch},
}

// remote commands talk to a server and never open the local database.
var remote = map[string]bool{"watch": true}

func main() {
	logging.Setup()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, time.Now)
	stop()
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "kakeibo:", err)
		os.Exit(1)
	}
}

func defaultDBPath() string {
	if p := os.Getenv("KAKEIBO_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("data", "kakeibo.db")
	}
	return filepath.Join(home, ".kakeibo", "kakeibo.db")
}

func run(ctx context.Context, args []string, out io.Writer, now func() time.Time) error {
	global := flag.NewFlagSet("kakeibo", flag.ContinueOnError)
	global.SetOutput(out)
	dbPath := global.String("db", defaultDBPath(), "SQLite database file (env KAKEIBO_DB)")
	format := global.String("o", "text", "output format: text or yaml")
	global.Usage = func() {
		fmt.Fprintln(out, "Usage: kakeibo [-db file] [-o text|yaml] <command> [flags]")
		fmt.Fprintln(out, "\nCommands:")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %-11s %s\n", name, commands[name].summary)
		}
		fmt.Fprintln(out, "\nFlags:")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "yaml" {
		return fmt.Errorf("unknown output format %q", *format)
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		global.Usage()
		return fmt.Errorf("unknown command %q: %w", rest[0], errUsage)
	}

	if remote[rest[0]] {
		return cmd.run(ctx, &app{out: out, now: now}, rest[1:])
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := ensureLocalGroup(ctx, store); err != nil {
		return err
	}

	a := &app{
		ledger: ledger.New(store, ledger.WithClock(now)),
		store:  store,
		out:    out,
		yaml:   *format == "yaml",
		now:    now,
	}
	return cmd.run(ctx, a, rest[1:])
}

// ensureLocalGroup creates the offline household with default settings on first use.
func ensureLocalGroup(ctx context.Context, store storage.GroupStore) error {
	_, err := store.GetGroup(ctx, localGroupID)
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	defaults := models.DefaultSettings()
	group := &models.Group{
		ID:         localGroupID,
		Name:       "家計簿",
		InviteCode: "LOCAL0",
		Categories: defaults.Categories,
	}
	for _, name := range defaults.Users {
		group.Members = append(group.Members, models.Member{DisplayName: name})
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to create local household: %w", err)
	}
	return nil
}

// newFlagSet returns a subcommand flag set that reports errors instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// resolveID accepts a full expense ID or a unique prefix of one.
func (a *app) resolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("expense id required: %w", errUsage)
	}
	expenses, err := a.ledger.List(ctx, localGroupID, true)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, e := range expenses {
		if e.ID == prefix {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no expense matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d expenses", prefix, len(matches))
	}
}

// splitList parses a comma separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
