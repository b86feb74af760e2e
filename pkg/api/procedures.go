package api

// PackageName prefixes every service name.
const PackageName = "kakeibo.v1"

const (
	AuthServiceName    = "kakeibo.v1.AuthService"
	GroupServiceName   = "kakeibo.v1.GroupService"
	ExpenseServiceName = "kakeibo.v1.ExpenseService"
)

const (
	AuthServiceRegisterProcedure       = "/kakeibo.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/kakeibo.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/kakeibo.v1.AuthService/GetCurrentUser"

	GroupServiceCreateGroupProcedure    = "/kakeibo.v1.GroupService/CreateGroup"
	GroupServiceJoinGroupProcedure      = "/kakeibo.v1.GroupService/JoinGroup"
	GroupServiceGetMyGroupProcedure     = "/kakeibo.v1.GroupService/GetMyGroup"
	GroupServiceUpdateSettingsProcedure = "/kakeibo.v1.GroupService/UpdateSettings"

	ExpenseServiceCreateExpenseProcedure  = "/kakeibo.v1.ExpenseService/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure  = "/kakeibo.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure  = "/kakeibo.v1.ExpenseService/DeleteExpense"
	ExpenseServiceListExpensesProcedure   = "/kakeibo.v1.ExpenseService/ListExpenses"
	ExpenseServiceToggleSettleProcedure   = "/kakeibo.v1.ExpenseService/ToggleSettle"
	ExpenseServiceSettleExpensesProcedure = "/kakeibo.v1.ExpenseService/SettleExpenses"
	ExpenseServiceGetSettlementProcedure  = "/kakeibo.v1.ExpenseService/GetSettlement"
	ExpenseServiceGetSummaryProcedure     = "/kakeibo.v1.ExpenseService/GetSummary"
	ExpenseServiceGetCalendarProcedure    = "/kakeibo.v1.ExpenseService/GetCalendar"
	ExpenseServiceGetDashboardProcedure   = "/kakeibo.v1.ExpenseService/GetDashboard"
	ExpenseServiceWatchExpensesProcedure  = "/kakeibo.v1.ExpenseService/WatchExpenses"
)

// PublicProcedures may be called without a session token.
var PublicProcedures = map[string]bool{
	AuthServiceRegisterProcedure: true,
	AuthServiceLoginProcedure:    true,
}
