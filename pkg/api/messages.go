package api

// Expense is the wire form of one expense record.
type Expense struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Payer     string `json:"payer"`
	Item      string `json:"item"`
	Amount    int64  `json:"amount"`
	Category  string `json:"category"`
	Settled   bool   `json:"settled"`
	SettledAt int64  `json:"settledAt,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Member struct {
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName"`
}

type Group struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	InviteCode string   `json:"inviteCode"`
	Members    []Member `json:"members"`
	Categories []string `json:"categories"`
}

type MemberBalance struct {
	MemberName string `json:"memberName"`
	TotalPaid  int64  `json:"totalPaid"`
	NetBalance int64  `json:"netBalance"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type Settlement struct {
	Members        []MemberBalance `json:"members"`
	TotalAmount    int64           `json:"totalAmount"`
	PerPerson      int64           `json:"perPerson"`
	UnsettledCount int             `json:"unsettledCount"`
	UnsettledIDs   []string        `json:"unsettledIds"`
	Transfers      []Transfer      `json:"transfers"`
}

type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

type PayerTotal struct {
	Payer string `json:"payer"`
	Total int64  `json:"total"`
}

type MonthBucket struct {
	Month      string           `json:"month"`
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"byCategory"`
}

type Summary struct {
	Period          string          `json:"period"`
	StartDate       string          `json:"startDate,omitempty"`
	EndDate         string          `json:"endDate,omitempty"`
	Total           int64           `json:"total"`
	Count           int             `json:"count"`
	Categories      []CategoryTotal `json:"categories"`
	Payers          []PayerTotal    `json:"payers"`
	Months          []MonthBucket   `json:"months"`
	MonthCategories []string        `json:"monthCategories"`
}

type DayTotal struct {
	Date     string    `json:"date"`
	Total    int64     `json:"total"`
	Expenses []Expense `json:"expenses"`
}

type Calendar struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	MonthTotal int64      `json:"monthTotal"`
	Days       []DayTotal `json:"days"`
}

type Dashboard struct {
	Users      []string   `json:"users"`
	MonthTotal int64      `json:"monthTotal"`
	MonthCount int        `json:"monthCount"`
	Settlement Settlement `json:"settlement"`
	Recent     []Expense  `json:"recent"`
}

// ExpenseEvent is one realtime change. Expense is absent for deletes.
type ExpenseEvent struct {
	Type      string   `json:"type"`
	ExpenseID string   `json:"expenseId"`
	Expense   *Expense `json:"expense,omitempty"`
	At        int64    `json:"at"`
}

// Auth service

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Group service

type CreateGroupRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"` // Defaults to the account display name
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type JoinGroupRequest struct {
	InviteCode  string `json:"inviteCode"`
	DisplayName string `json:"displayName"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type GetMyGroupRequest struct{}

type GetMyGroupResponse struct {
	Group *Group `json:"group"` // Nil when the caller has not joined a household yet
}

type UpdateSettingsRequest struct {
	Users      []string `json:"users,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type UpdateSettingsResponse struct {
	Group *Group `json:"group"`
}

// Expense service

type CreateExpenseRequest struct {
	Date     string `json:"date"`
	Payer    string `json:"payer"`
	Item     string `json:"item"`
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// UpdateExpenseRequest edits only the fields that are set.
type UpdateExpenseRequest struct {
	ID       string  `json:"id"`
	Date     *string `json:"date,omitempty"`
	Payer    *string `json:"payer,omitempty"`
	Item     *string `json:"item,omitempty"`
	Amount   *int64  `json:"amount,omitempty"`
	Category *string `json:"category,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ID string `json:"id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	IncludeSettled bool `json:"includeSettled"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type ToggleSettleRequest struct {
	ID string `json:"id"`
}

type ToggleSettleResponse struct {
	Expense *Expense `json:"expense"`
}

// SettleExpensesRequest settles the listed ids, or every open record when All is set.
type SettleExpensesRequest struct {
	IDs []string `json:"ids,omitempty"`
	All bool     `json:"all,omitempty"`
}

type SettleExpensesResponse struct {
	SettledCount int        `json:"settledCount"`
	SettledAt    int64      `json:"settledAt"`
	Settlement   Settlement `json:"settlement"`
}

type GetSettlementRequest struct{}

type GetSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
	Expenses   []Expense  `json:"expenses"` // Unsettled first, then newest date first
}

type GetSummaryRequest struct {
	Period string `json:"period"`
}

type GetSummaryResponse struct {
	Summary Summary `json:"summary"`
}

type GetCalendarRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type GetCalendarResponse struct {
	Calendar Calendar `json:"calendar"`
}

type GetDashboardRequest struct{}

type GetDashboardResponse struct {
	Dashboard Dashboard `json:"dashboard"`
}

type WatchExpensesRequest struct{}

// ExpenseSnapshot is the full record list, newest recorded first.
type ExpenseSnapshot struct {
	Expenses []Expense `json:"expenses"`
}

// WatchExpensesResponse carries either the initial snapshot or one change.
type WatchExpensesResponse struct {
	Snapshot *ExpenseSnapshot `json:"snapshot,omitempty"`
	Event    *ExpenseEvent    `json:"event,omitempty"`
}
