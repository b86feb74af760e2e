package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"connectrpc.com/connect"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/report"
	"github.com/mmynk/kakeibo/pkg/api"
)

// cmdWatch follows a household on a server and prints every change together
// with the open settlement recomputed from the local mirror.
func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("watch")
	server := fs.String("server", os.Getenv("KAKEIBO_SERVER"), "server base URL (env KAKEIBO_SERVER)")
	token := fs.String("token", os.Getenv("KAKEIBO_TOKEN"), "session token (env KAKEIBO_TOKEN)")
	limit := fs.Int("n", 0, "stop after this many changes, 0 watches until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *server == "" || *token == "" {
		return fmt.Errorf("watch: -server and -token are required: %w", errUsage)
	}

	opt := api.WithToken(*token)
	mine, err := api.NewGroupServiceClient(http.DefaultClient, *server, opt).
		GetMyGroup(ctx, connect.NewRequest(&api.GetMyGroupRequest{}))
	if err != nil {
		return err
	}
	group := mine.Msg.Group
	if group == nil {
		return errors.New("watch: the account has no household yet")
	}
	users := make([]string, len(group.Members))
	for i, m := range group.Members {
		users[i] = m.DisplayName
	}

	stream, err := api.NewExpenseServiceClient(http.DefaultClient, *server, opt).
		WatchExpenses(ctx, connect.NewRequest(&api.WatchExpensesRequest{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	var mirror *realtime.Mirror
	changes := 0
	for stream.Receive() {
		msg := stream.Msg()
		switch {
		case msg.Snapshot != nil:
			expenses := fromAPIExpenses(group.ID, msg.Snapshot.Expenses)
			if mirror == nil {
				mirror = realtime.NewMirror(group.ID, expenses)
			} else {
				mirror.Reset(expenses)
			}
			fmt.Fprintf(a.out, "Watching %s: %d records\n", group.Name, len(expenses))
		case msg.Event != nil && mirror != nil:
			ev := fromAPIEvent(group.ID, msg.Event)
			fmt.Fprintln(a.out, describeEvent(mirror.Expenses(), ev))
			mirror.Apply(ev)
			changes++
		default:
			continue
		}

		s := calculator.CalculateSettlement(mirror.Expenses(), users)
		fmt.Fprintf(a.out, "  open %s in %d, %s\n", report.Yen(s.TotalAmount), s.UnsettledCount, report.TransferLabel(s))
		if *limit > 0 && changes >= *limit {
			return nil
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// describeEvent renders one change; before is the record list it applies to.
func describeEvent(before []models.Expense, ev realtime.Event) string {
	e := ev.Expense
	if e == nil {
		for i := range before {
			if before[i].ID == ev.ExpenseID {
				e = &before[i]
				break
			}
		}
	}
	if e == nil {
		return fmt.Sprintf("%s %s", ev.Type, shortID(ev.ExpenseID))
	}
	line := fmt.Sprintf("%s %s %s %s %s (%s, %s)", ev.Type, shortID(e.ID), e.Date, e.Item, report.Yen(e.Amount), e.Category, e.Payer)
	if e.Settled && ev.Type == realtime.EventUpdate {
		line += " settled"
	}
	return line
}

func fromAPIExpense(groupID string, e api.Expense) models.Expense {
	return models.Expense{
		ID:        e.ID,
		GroupID:   groupID,
		Date:      e.Date,
		Payer:     e.Payer,
		Item:      e.Item,
		Amount:    e.Amount,
		Category:  e.Category,
		Settled:   e.Settled,
		SettledAt: e.SettledAt,
		CreatedAt: e.CreatedAt,
	}
}

func fromAPIExpenses(groupID string, expenses []api.Expense) []models.Expense {
	out := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = fromAPIExpense(groupID, e)
	}
	return out
}

// fromAPIEvent restores the household ID the wire form leaves out.
func fromAPIEvent(groupID string, ev *api.ExpenseEvent) realtime.Event {
	out := realtime.Event{
		Type:      realtime.EventType(ev.Type),
		GroupID:   groupID,
		ExpenseID: ev.ExpenseID,
		At:        ev.At,
	}
	if ev.Expense != nil {
		e := fromAPIExpense(groupID, *ev.Expense)
		out.Expense = &e
	}
	return out
}
