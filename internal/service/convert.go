package service

import (
	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/pkg/api"
)

func toAPIExpense(e models.Expense) api.Expense {
	return api.Expense{
		ID:        e.ID,
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

func toAPIExpenses(expenses []models.Expense) []api.Expense {
	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return out
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{UserID: m.UserID, DisplayName: m.DisplayName}
	}
	return &api.Group{
		ID:         g.ID,
		Name:       g.Name,
		InviteCode: g.InviteCode,
		Members:    members,
		Categories: append([]string{}, g.Categories...),
	}
}

func toAPISettlement(s calculator.Settlement) api.Settlement {
	members := make([]api.MemberBalance, len(s.Members))
	for i, m := range s.Members {
		members[i] = api.MemberBalance{MemberName: m.MemberName, TotalPaid: m.TotalPaid, NetBalance: m.NetBalance}
	}
	transfers := make([]api.Transfer, len(s.Transfers))
	for i, t := range s.Transfers {
		transfers[i] = api.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return api.Settlement{
		Members:        members,
		TotalAmount:    s.TotalAmount,
		PerPerson:      s.PerPerson,
		UnsettledCount: s.UnsettledCount,
		UnsettledIDs:   append([]string{}, s.UnsettledIDs...),
		Transfers:      transfers,
	}
}

func toAPISummary(s *ledger.Summary) api.Summary {
	out := api.Summary{
		Period:          string(s.Period),
		StartDate:       s.Range.Start,
		EndDate:         s.Range.End,
		Total:           s.Total,
		Count:           s.Count,
		Categories:      make([]api.CategoryTotal, len(s.Categories)),
		Payers:          make([]api.PayerTotal, len(s.Payers)),
		Months:          make([]api.MonthBucket, len(s.Monthly.Months)),
		MonthCategories: append([]string{}, s.Monthly.Categories...),
	}
	for i, c := range s.Categories {
		out.Categories[i] = api.CategoryTotal{Category: c.Category, Total: c.Total}
	}
	for i, p := range s.Payers {
		out.Payers[i] = api.PayerTotal{Payer: p.Payer, Total: p.Total}
	}
	for i, m := range s.Monthly.Months {
		out.Months[i] = api.MonthBucket{Month: m.Month, Total: m.Total, ByCategory: m.ByCategory}
	}
	return out
}

func toAPICalendar(c *ledger.Calendar) api.Calendar {
	days := make([]api.DayTotal, len(c.Days))
	for i, d := range c.Days {
		days[i] = api.DayTotal{Date: d.Date, Total: d.Total, Expenses: toAPIExpenses(d.Expenses)}
	}
	return api.Calendar{Year: c.Year, Month: c.Month, MonthTotal: c.MonthTotal, Days: days}
}

func toAPIDashboard(d *ledger.Dashboard) api.Dashboard {
	return api.Dashboard{
		Users:      append([]string{}, d.Users...),
		MonthTotal: d.MonthTotal,
		MonthCount: d.MonthCount,
		Settlement: toAPISettlement(d.Settlement),
		Recent:     toAPIExpenses(d.Recent),
	}
}

func toAPIEvent(ev realtime.Event) *api.ExpenseEvent {
	out := &api.ExpenseEvent{Type: string(ev.Type), ExpenseID: ev.ExpenseID, At: ev.At}
	if ev.Expense != nil {
		e := toAPIExpense(*ev.Expense)
		out.Expense = &e
	}
	return out
}
