package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
	"github.com/mmynk/kakeibo/internal/storage"
	"github.com/mmynk/kakeibo/pkg/api"
)

// ExpenseService implements the Connect ExpenseService on top of the ledger.
// Every call is scoped to the caller's household.
type ExpenseService struct {
	ledger *ledger.Ledger
	groups storage.GroupStore
	hub    *realtime.Hub
	buffer int
	now    func() time.Time
}

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates the service. hub feeds WatchExpenses streams.
func NewExpenseService(l *ledger.Ledger, groups storage.GroupStore, hub *realtime.Hub) *ExpenseService {
	return &ExpenseService{ledger: l, groups: groups, hub: hub, buffer: realtime.DefaultBuffer, now: time.Now}
}

// WithStreamBuffer sets the per-stream event buffer of WatchExpenses.
func (s *ExpenseService) WithStreamBuffer(n int) *ExpenseService {
	s.buffer = n
	return s
}

func (s *ExpenseService) groupID(ctx context.Context) (string, error) {
	group, err := groupForCaller(ctx, s.groups)
	if err != nil {
		return "", err
	}
	return group.ID, nil
}

// CreateExpense records a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	e, err := s.ledger.AddExpense(ctx, groupID, ledger.NewExpense{
		Date:     req.Msg.Date,
		Payer:    req.Msg.Payer,
		Item:     req.Msg.Item,
		Amount:   req.Msg.Amount,
		Category: req.Msg.Category,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	out := toAPIExpense(*e)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: &out}), nil
}

// UpdateExpense edits the fields set in the request.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	e, err := s.ledger.EditExpense(ctx, groupID, req.Msg.ID, models.ExpensePatch{
		Date:     req.Msg.Date,
		Payer:    req.Msg.Payer,
		Item:     req.Msg.Item,
		Amount:   req.Msg.Amount,
		Category: req.Msg.Category,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	out := toAPIExpense(*e)
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: &out}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.ledger.RemoveExpense(ctx, groupID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns the household's records, newest recorded first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	expenses, err := s.ledger.List(ctx, groupID, req.Msg.IncludeSettled)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: toAPIExpenses(expenses)}), nil
}

// ToggleSettle flips the settled state of one expense.
func (s *ExpenseService) ToggleSettle(ctx context.Context, req *connect.Request[api.ToggleSettleRequest]) (*connect.Response[api.ToggleSettleResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	e, err := s.ledger.ToggleSettle(ctx, groupID, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := toAPIExpense(*e)
	return connect.NewResponse(&api.ToggleSettleResponse{Expense: &out}), nil
}

// SettleExpenses settles the listed records, or all open ones.
func (s *ExpenseService) SettleExpenses(ctx context.Context, req *connect.Request[api.SettleExpensesRequest]) (*connect.Response[api.SettleExpensesResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !req.Msg.All && len(req.Msg.IDs) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("ids or all is required"))
	}

	var result *ledger.SettleResult
	if req.Msg.All {
		result, err = s.ledger.SettleAll(ctx, groupID)
	} else {
		result, err = s.ledger.Settle(ctx, groupID, req.Msg.IDs)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SettleExpensesResponse{
		SettledCount: result.Count,
		SettledAt:    result.SettledAt,
		Settlement:   toAPISettlement(result.Settlement),
	}), nil
}

// GetSettlement returns the open settlement and the records in settlement order.
func (s *ExpenseService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	settlement, ordered, err := s.ledger.SettlementView(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetSettlementResponse{
		Settlement: toAPISettlement(settlement),
		Expenses:   toAPIExpenses(ordered),
	}), nil
}

// GetSummary aggregates one reporting period. An empty period means this month.
func (s *ExpenseService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	period := calculator.Period(req.Msg.Period)
	if period == "" {
		period = calculator.PeriodThisMonth
	}
	summary, err := s.ledger.Summary(ctx, groupID, period)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetSummaryResponse{Summary: toAPISummary(summary)}), nil
}

// GetCalendar returns the daily totals of one month. Zero year or month means the current one.
func (s *ExpenseService) GetCalendar(ctx context.Context, req *connect.Request[api.GetCalendarRequest]) (*connect.Response[api.GetCalendarResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	year, month := req.Msg.Year, req.Msg.Month
	if year == 0 || month == 0 {
		now := s.now()
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("month must be between 1 and 12"))
	}
	cal, err := s.ledger.Calendar(ctx, groupID, year, month)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCalendarResponse{Calendar: toAPICalendar(cal)}), nil
}

// GetDashboard returns the home screen figures.
func (s *ExpenseService) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	dash, err := s.ledger.Dashboard(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetDashboardResponse{Dashboard: toAPIDashboard(dash)}), nil
}

// WatchExpenses streams the current records and then every change until the
// client disconnects. The subscription is opened before the snapshot is read,
// so no change between the two is lost. A change may then arrive both in the
// snapshot and as an event; clients fold events with realtime.Mirror, which
// ignores an insert of a record it already holds.
func (s *ExpenseService) WatchExpenses(ctx context.Context, req *connect.Request[api.WatchExpensesRequest], stream *connect.ServerStream[api.WatchExpensesResponse]) error {
	groupID, err := s.groupID(ctx)
	if err != nil {
		return toConnectError(err)
	}

	sub := s.hub.Subscribe(groupID, s.buffer)
	defer sub.Close()

	expenses, err := s.ledger.List(ctx, groupID, true)
	if err != nil {
		return toConnectError(err)
	}
	if err := stream.Send(&api.WatchExpensesResponse{
		Snapshot: &api.ExpenseSnapshot{Expenses: toAPIExpenses(expenses)},
	}); err != nil {
		return err
	}
	slog.Debug("Watch stream opened", "group_id", groupID, "records", len(expenses))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.Send(&api.WatchExpensesResponse{Event: toAPIEvent(ev)}); err != nil {
				return err
			}
		}
	}
}
