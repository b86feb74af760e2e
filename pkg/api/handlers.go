package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AuthServiceHandler is implemented by the server side of AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	register := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	getCurrentUser := connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...)
	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			register.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceGetCurrentUserProcedure:
			getCurrentUser.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GroupServiceHandler is implemented by the server side of GroupService.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	JoinGroup(context.Context, *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error)
	GetMyGroup(context.Context, *connect.Request[GetMyGroupRequest]) (*connect.Response[GetMyGroupResponse], error)
	UpdateSettings(context.Context, *connect.Request[UpdateSettingsRequest]) (*connect.Response[UpdateSettingsResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createGroup := connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...)
	joinGroup := connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...)
	getMyGroup := connect.NewUnaryHandler(GroupServiceGetMyGroupProcedure, svc.GetMyGroup, opts...)
	updateSettings := connect.NewUnaryHandler(GroupServiceUpdateSettingsProcedure, svc.UpdateSettings, opts...)
	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			createGroup.ServeHTTP(w, r)
		case GroupServiceJoinGroupProcedure:
			joinGroup.ServeHTTP(w, r)
		case GroupServiceGetMyGroupProcedure:
			getMyGroup.ServeHTTP(w, r)
		case GroupServiceUpdateSettingsProcedure:
			updateSettings.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ExpenseServiceHandler is implemented by the server side of ExpenseService.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	ToggleSettle(context.Context, *connect.Request[ToggleSettleRequest]) (*connect.Response[ToggleSettleResponse], error)
	SettleExpenses(context.Context, *connect.Request[SettleExpensesRequest]) (*connect.Response[SettleExpensesResponse], error)
	GetSettlement(context.Context, *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error)
	GetSummary(context.Context, *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error)
	GetCalendar(context.Context, *connect.Request[GetCalendarRequest]) (*connect.Response[GetCalendarResponse], error)
	GetDashboard(context.Context, *connect.Request[GetDashboardRequest]) (*connect.Response[GetDashboardResponse], error)
	WatchExpenses(context.Context, *connect.Request[WatchExpensesRequest], *connect.ServerStream[WatchExpensesResponse]) error
}

// NewExpenseServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createExpense := connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	updateExpense := connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...)
	deleteExpense := connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	listExpenses := connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...)
	toggleSettle := connect.NewUnaryHandler(ExpenseServiceToggleSettleProcedure, svc.ToggleSettle, opts...)
	settleExpenses := connect.NewUnaryHandler(ExpenseServiceSettleExpensesProcedure, svc.SettleExpenses, opts...)
	getSettlement := connect.NewUnaryHandler(ExpenseServiceGetSettlementProcedure, svc.GetSettlement, opts...)
	getSummary := connect.NewUnaryHandler(ExpenseServiceGetSummaryProcedure, svc.GetSummary, opts...)
	getCalendar := connect.NewUnaryHandler(ExpenseServiceGetCalendarProcedure, svc.GetCalendar, opts...)
	getDashboard := connect.NewUnaryHandler(ExpenseServiceGetDashboardProcedure, svc.GetDashboard, opts...)
	watchExpenses := connect.NewServerStreamHandler(ExpenseServiceWatchExpensesProcedure, svc.WatchExpenses, opts...)
	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpense.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			updateExpense.ServeHTTP(w, r)
		case ExpenseServiceDeleteExpenseProcedure:
			deleteExpense.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			listExpenses.ServeHTTP(w, r)
		case ExpenseServiceToggleSettleProcedure:
			toggleSettle.ServeHTTP(w, r)
		case ExpenseServiceSettleExpensesProcedure:
			settleExpenses.ServeHTTP(w, r)
		case ExpenseServiceGetSettlementProcedure:
			getSettlement.ServeHTTP(w, r)
		case ExpenseServiceGetSummaryProcedure:
			getSummary.ServeHTTP(w, r)
		case ExpenseServiceGetCalendarProcedure:
			getCalendar.ServeHTTP(w, r)
		case ExpenseServiceGetDashboardProcedure:
			getDashboard.ServeHTTP(w, r)
		case ExpenseServiceWatchExpensesProcedure:
			watchExpenses.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
