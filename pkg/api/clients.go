package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// AuthServiceClient calls AuthService on a remote server.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, RegisterResponse]
	login          *connect.Client[LoginRequest, LoginResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewAuthServiceClient creates a client for the server at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:       connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		getCurrentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// GroupServiceClient calls GroupService on a remote server.
type GroupServiceClient struct {
	createGroup    *connect.Client[CreateGroupRequest, CreateGroupResponse]
	joinGroup      *connect.Client[JoinGroupRequest, JoinGroupResponse]
	getMyGroup     *connect.Client[GetMyGroupRequest, GetMyGroupResponse]
	updateSettings *connect.Client[UpdateSettingsRequest, UpdateSettingsResponse]
}

// NewGroupServiceClient creates a client for the server at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:    connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		joinGroup:      connect.NewClient[JoinGroupRequest, JoinGroupResponse](httpClient, baseURL+GroupServiceJoinGroupProcedure, opts...),
		getMyGroup:     connect.NewClient[GetMyGroupRequest, GetMyGroupResponse](httpClient, baseURL+GroupServiceGetMyGroupProcedure, opts...),
		updateSettings: connect.NewClient[UpdateSettingsRequest, UpdateSettingsResponse](httpClient, baseURL+GroupServiceUpdateSettingsProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetMyGroup(ctx context.Context, req *connect.Request[GetMyGroupRequest]) (*connect.Response[GetMyGroupResponse], error) {
	return c.getMyGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateSettings(ctx context.Context, req *connect.Request[UpdateSettingsRequest]) (*connect.Response[UpdateSettingsResponse], error) {
	return c.updateSettings.CallUnary(ctx, req)
}

// ExpenseServiceClient calls ExpenseService on a remote server.
type ExpenseServiceClient struct {
	createExpense  *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense  *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense  *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses   *connect.Client[ListExpensesRequest, ListExpensesResponse]
	toggleSettle   *connect.Client[ToggleSettleRequest, ToggleSettleResponse]
	settleExpenses *connect.Client[SettleExpensesRequest, SettleExpensesResponse]
	getSettlement  *connect.Client[GetSettlementRequest, GetSettlementResponse]
	getSummary     *connect.Client[GetSummaryRequest, GetSummaryResponse]
	getCalendar    *connect.Client[GetCalendarRequest, GetCalendarResponse]
	getDashboard   *connect.Client[GetDashboardRequest, GetDashboardResponse]
	watchExpenses  *connect.Client[WatchExpensesRequest, WatchExpensesResponse]
}

// NewExpenseServiceClient creates a client for the server at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense:  connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		updateExpense:  connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:  connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		toggleSettle:   connect.NewClient[ToggleSettleRequest, ToggleSettleResponse](httpClient, baseURL+ExpenseServiceToggleSettleProcedure, opts...),
		settleExpenses: connect.NewClient[SettleExpensesRequest, SettleExpensesResponse](httpClient, baseURL+ExpenseServiceSettleExpensesProcedure, opts...),
		getSettlement:  connect.NewClient[GetSettlementRequest, GetSettlementResponse](httpClient, baseURL+ExpenseServiceGetSettlementProcedure, opts...),
		getSummary:     connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+ExpenseServiceGetSummaryProcedure, opts...),
		getCalendar:    connect.NewClient[GetCalendarRequest, GetCalendarResponse](httpClient, baseURL+ExpenseServiceGetCalendarProcedure, opts...),
		getDashboard:   connect.NewClient[GetDashboardRequest, GetDashboardResponse](httpClient, baseURL+ExpenseServiceGetDashboardProcedure, opts...),
		watchExpenses:  connect.NewClient[WatchExpensesRequest, WatchExpensesResponse](httpClient, baseURL+ExpenseServiceWatchExpensesProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ToggleSettle(ctx context.Context, req *connect.Request[ToggleSettleRequest]) (*connect.Response[ToggleSettleResponse], error) {
	return c.toggleSettle.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) SettleExpenses(ctx context.Context, req *connect.Request[SettleExpensesRequest]) (*connect.Response[SettleExpensesResponse], error) {
	return c.settleExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetSettlement(ctx context.Context, req *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetCalendar(ctx context.Context, req *connect.Request[GetCalendarRequest]) (*connect.Response[GetCalendarResponse], error) {
	return c.getCalendar.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetDashboard(ctx context.Context, req *connect.Request[GetDashboardRequest]) (*connect.Response[GetDashboardResponse], error) {
	return c.getDashboard.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) WatchExpenses(ctx context.Context, req *connect.Request[WatchExpensesRequest]) (*connect.ServerStreamForClient[WatchExpensesResponse], error) {
	return c.watchExpenses.CallServerStream(ctx, req)
}

// WithToken attaches "Authorization: Bearer <token>" to every call.
func WithToken(token string) connect.ClientOption {
	return connect.WithInterceptors(tokenInterceptor{header: "Bearer " + token})
}

type tokenInterceptor struct {
	header string
}

func (t tokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			req.Header().Set("Authorization", t.header)
		}
		return next(ctx, req)
	}
}

func (t tokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set("Authorization", t.header)
		return conn
	}
}

func (t tokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
