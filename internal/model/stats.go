package model

type Totals struct {
	Income       float64 `json:"total_income"`
	Expense      float64 `json:"total_expense"`
	IncomeCount  int     `json:"-"`
	ExpenseCount int     `json:"-"`
}

func (t Totals) Balance() float64 {
	return t.Income - t.Expense
}

func (t Totals) Count() int {
	return t.IncomeCount + t.ExpenseCount
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// MonthlyTotal is keyed by "YYYY-MM".
type MonthlyTotal struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type Dashboard struct {
	TotalIncome       float64         `json:"total_income"`
	TotalExpense      float64         `json:"total_expense"`
	Balance           float64         `json:"balance"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
	DailyAverage      float64         `json:"daily_average"`
	Recent            []Transaction   `json:"recent_transactions"`
	MonthlyComparison []MonthlyTotal  `json:"monthly_comparison"`
}

type StatisticsSummary struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpense     float64 `json:"total_expense"`
	Balance          float64 `json:"balance"`
	TransactionCount int     `json:"transaction_count"`
	AverageIncome    float64 `json:"average_income"`
	AverageExpense   float64 `json:"average_expense"`
}

type Statistics struct {
	Summary           StatisticsSummary `json:"summary"`
	ExpenseByCategory []CategoryTotal   `json:"expense_by_category"`
	IncomeByCategory  []CategoryTotal   `json:"income_by_category"`
	MonthlyTrends     []MonthlyTotal    `json:"monthly_trends"`
}

type ChartPoint struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type CategoryChart struct {
	Type string       `json:"type"`
	Data []ChartPoint `json:"data"`
}

type TrendChart struct {
	Data []MonthlyTotal `json:"data"`
}

type UserActivity struct {
	UserID           string    `json:"user_id"`
	UserInfo         *UserInfo `json:"user_info,omitempty"`
	TotalIncome      float64   `json:"total_income"`
	TotalExpense     float64   `json:"total_expense"`
	NetBalance       float64   `json:"net_balance"`
	TransactionCount int       `json:"transaction_count"`
}

type SystemStats struct {
	UserCount        int            `json:"user_count"`
	ActiveUserCount  int            `json:"active_user_count"`
	TransactionCount int            `json:"transaction_count"`
	TotalIncome      float64        `json:"total_income"`
	TotalExpense     float64        `json:"total_expense"`
	Balance          float64        `json:"balance"`
	HighSpenders     []UserActivity `json:"high_spenders"`
}

const (
	ReportOverview           = "overview"
	ReportFinancial          = "financial"
	ReportUserActivity       = "user-activity"
	ReportTransactionDetails = "transaction-details"
)

// SystemReport is the data behind an admin report export.
type SystemReport struct {
	Type         string          `json:"report_type"`
	Period       string          `json:"period"`
	Stats        SystemStats     `json:"system_stats"`
	Categories   []CategoryTotal `json:"categories,omitempty"`
	Monthly      []MonthlyTotal  `json:"monthly_data,omitempty"`
	Activities   []UserActivity  `json:"user_activities,omitempty"`
	Transactions []Transaction   `json:"transactions,omitempty"`
}
