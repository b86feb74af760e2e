package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/kakeibo/internal/models"
)

type cli struct {
	t   *testing.T
	db  string
	now func() time.Time
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	fixed := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	return &cli{
		t:   t,
		db:  filepath.Join(t.TempDir(), "kakeibo.db"),
		now: func() time.Time { return fixed },
	}
}

func (c *cli) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-db", c.db}, args...), &out, c.now)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("kakeibo %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestUsage(t *testing.T) {
	c := newCLI(t)

	out, err := c.run()
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(out, "settlement") {
		t.Errorf("usage should list commands, got %q", out)
	}

	if _, err := c.run("frobnicate"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for unknown command, got %v", err)
	}
	if _, err := c.run("-o", "json", "list"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestAddListSettle(t *testing.T) {
	c := newCLI(t)
	c.mustRun("settings", "-users", "A,B")

	c.mustRun("add", "-payer", "A", "-item", "Dinner", "-amount", "3000", "-category", "外食")
	c.mustRun("add", "-payer", "B", "-amount", "500", "Soap", "bar")

	out := c.mustRun("list")
	if !strings.Contains(out, "Dinner") || !strings.Contains(out, "Soap bar") {
		t.Errorf("list missing records:\n%s", out)
	}
	if !strings.Contains(out, "2025-03-15") {
		t.Errorf("date should default to today:\n%s", out)
	}

	out = c.mustRun("settlement")
	if !strings.Contains(out, "B → A") || !strings.Contains(out, "¥1,250") {
		t.Errorf("unexpected settlement:\n%s", out)
	}

	out = c.mustRun("settle")
	if !strings.Contains(out, "Settled 2 expenses") {
		t.Errorf("unexpected settle output:\n%s", out)
	}
	if out := c.mustRun("settle"); !strings.Contains(out, "Nothing to settle") {
		t.Errorf("second settle should be a no-op:\n%s", out)
	}

	if out := c.mustRun("list"); strings.Contains(out, "Dinner") {
		t.Errorf("settled records should be hidden:\n%s", out)
	}
	if out := c.mustRun("list", "-all"); !strings.Contains(out, "Dinner") {
		t.Errorf("-all should include settled records:\n%s", out)
	}
}

func TestAddValidation(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run("add", "-item", "Nothing", "-amount", "0"); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := c.run("add", "-amount", "100"); err == nil {
		t.Error("expected error for empty item")
	}
}

func TestEditToggleDelete(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "-item", "Rice", "-amount", "1000")

	out := c.mustRun("-o", "yaml", "list")
	idx := strings.Index(out, "id: ")
	if idx < 0 {
		t.Fatalf("yaml list has no id:\n%s", out)
	}
	id := strings.TrimSpace(strings.SplitN(out[idx+4:], "\n", 2)[0])
	prefix := id[:6]

	out = c.mustRun("edit", prefix, "-amount", "1200")
	if !strings.Contains(out, "¥1,200") {
		t.Errorf("edit should report the new amount:\n%s", out)
	}
	if _, err := c.run("edit", prefix); err == nil {
		t.Error("expected error for an edit without changes")
	}

	if out := c.mustRun("toggle", prefix); !strings.Contains(out, "now settled") {
		t.Errorf("unexpected toggle output:\n%s", out)
	}
	if out := c.mustRun("toggle", id); !strings.Contains(out, "now unsettled") {
		t.Errorf("unexpected toggle output:\n%s", out)
	}

	c.mustRun("delete", prefix)
	if _, err := c.run("delete", prefix); err == nil {
		t.Error("expected error deleting a missing expense")
	}
}

func TestSummaryCalendarDashboard(t *testing.T) {
	c := newCLI(t)
	c.mustRun("settings", "-users", "A,B")
	c.mustRun("add", "-date", "2025-03-02", "-payer", "A", "-item", "Rice", "-amount", "1000", "-category", "食費")
	c.mustRun("add", "-date", "2025-02-20", "-payer", "B", "-item", "Train", "-amount", "400", "-category", "交通費")

	out := c.mustRun("summary")
	if !strings.Contains(out, "¥1,000") || strings.Contains(out, "交通費") {
		t.Errorf("this-month summary should only count March:\n%s", out)
	}
	out = c.mustRun("-o", "yaml", "summary", "-period", "all")
	if !strings.Contains(out, "count: 2") {
		t.Errorf("all-time summary should count both records:\n%s", out)
	}
	if _, err := c.run("summary", "-period", "forever"); err == nil {
		t.Error("expected error for unknown period")
	}

	out = c.mustRun("calendar", "-month", "2025-02")
	if !strings.Contains(out, "2025-02-20") || !strings.Contains(out, "Train") {
		t.Errorf("unexpected calendar:\n%s", out)
	}

	out = c.mustRun("dashboard")
	if !strings.Contains(out, "This month: ¥1,000 in 1 records") {
		t.Errorf("unexpected dashboard:\n%s", out)
	}
}

func TestSettings(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("settings")
	if !strings.Contains(out, "パートナー1") || !strings.Contains(out, "食費") {
		t.Errorf("fresh database should have default settings:\n%s", out)
	}

	out = c.mustRun("settings", "-users", "Aki,Ren", "-categories", "Food,Rent")
	if !strings.Contains(out, "Aki, Ren") || !strings.Contains(out, "Food, Rent") {
		t.Errorf("settings not updated:\n%s", out)
	}
	if _, err := c.run("settings", "-users", "Aki,Aki"); err == nil {
		t.Error("expected error for duplicate names")
	}
	if _, err := c.run("settings", "-users", "Ren"); !errors.Is(err, models.ErrDuplicateMemberName) {
		t.Errorf("renaming the first member to the second's name: got %v", err)
	}
	out = c.mustRun("settings")
	if !strings.Contains(out, "Aki, Ren") {
		t.Errorf("rejected rename changed members:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "-item", "Rice", "-amount", "1000")
	dir := t.TempDir()

	for _, name := range []string{"report.xlsx", "report.pdf", "report.yaml"} {
		path := filepath.Join(dir, name)
		c.mustRun("export", "-out", path)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	if _, err := c.run("export", "-out", filepath.Join(dir, "report.doc")); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := c.run("export"); err == nil {
		t.Error("expected error without -out")
	}
}
