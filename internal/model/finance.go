package model

import "time"

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

func ValidEntryType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCategories are created for every newly registered account.
var DefaultCategories = []Category{
	{Name: "Salary", Type: TypeIncome},
	{Name: "Bonus", Type: TypeIncome},
	{Name: "Food", Type: TypeExpense},
	{Name: "Transportation", Type: TypeExpense},
	{Name: "Housing", Type: TypeExpense},
	{Name: "Entertainment", Type: TypeExpense},
	{Name: "Utilities", Type: TypeExpense},
}

type Transaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Amount       float64   `json:"amount"`
	Type         string    `json:"type"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Date         time.Time `json:"date"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserInfo     *UserInfo `json:"user_info,omitempty"`
}

// TransactionFilter narrows transaction listings. Zero values mean "no filter".
type TransactionFilter struct {
	UserID     string
	Search     string
	Type       string
	CategoryID string
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *float64
	AmountMax  *float64
	Page       int
	PerPage    int
	SortBy     string
	SortOrder  string
}

type CategoryList struct {
	Categories []Category `json:"categories"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

type SearchSuggestions struct {
	Suggestions []string `json:"suggestions"`
}

type BulkDeleteResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}
