package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"money-manager/internal/model"
)

func newReportService(users *MockUserStore, transactions *MockTransactionStore) *ReportService {
	svc := NewReportService(users, transactions)
	svc.now = clock(fixedNow)
	return svc
}

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{ID: "tx-1", Amount: 1500, Type: model.TypeIncome, CategoryName: "Salary", Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "tx-2", Amount: 42.5, Type: model.TypeExpense, CategoryName: "Food", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Note: "groceries"},
	}
}

func TestReportService_ExportTransactions(t *testing.T) {
	t.Parallel()

	t.Run("csv by default", func(t *testing.T) {
		transactions := new(MockTransactionStore)
		transactions.On("ListAll", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
			return f.UserID == "user-1" && f.Type == model.TypeExpense && f.SortOrder == "desc"
		}), maxUserExportRows).Return(sampleTransactions(), nil)

		file, err := newReportService(new(MockUserStore), transactions).ExportTransactions(context.Background(), "user-1",
			model.TransactionFilter{UserID: "someone-else", Type: model.TypeExpense}, "")
		require.NoError(t, err)
		assert.Equal(t, "transactions_user-1_20240615_103000.csv", file.Name)
		assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
		assert.True(t, strings.HasPrefix(string(file.Body), "Date,Category,Type,Amount,Note\n"))
		assert.Contains(t, string(file.Body), "2024-06-01,Food,Expense,42.50,groceries")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := newReportService(new(MockUserStore), new(MockTransactionStore)).ExportTransactions(context.Background(), "user-1",
			model.TransactionFilter{}, "docx")
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestReportService_GenerateUserReport(t *testing.T) {
	t.Parallel()

	t.Run("excel by default", func(t *testing.T) {
		transactions := new(MockTransactionStore)
		transactions.On("ListAll", mock.Anything, mock.Anything, maxUserExportRows).Return(sampleTransactions(), nil)

		file, err := newReportService(new(MockUserStore), transactions).GenerateUserReport(context.Background(), "user-1",
			model.UserReportRequest{DateFrom: "2024-06-01", DateTo: "2024-06-30"})
		require.NoError(t, err)
		assert.Equal(t, "transactions_user-1_20240615_103000.xlsx", file.Name)
		assert.Equal(t, "PK", string(file.Body[:2]))
	})

	t.Run("nothing to report", func(t *testing.T) {
		transactions := new(MockTransactionStore)
		transactions.On("ListAll", mock.Anything, mock.Anything, maxUserExportRows).Return([]model.Transaction{}, nil)

		_, err := newReportService(new(MockUserStore), transactions).GenerateUserReport(context.Background(), "user-1",
			model.UserReportRequest{Format: "pdf"})
		apiErr := requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "no transactions found for the specified criteria", apiErr.Message)
	})
}

func TestReportService_ExportAllTransactions(t *testing.T) {
	t.Parallel()

	transactions := new(MockTransactionStore)
	rows := sampleTransactions()
	rows[0].UserInfo = &model.UserInfo{Username: "alice", Email: "alice@example.com"}
	transactions.On("ListAll", mock.Anything, mock.Anything, maxAdminExportRows).Return(rows, nil)

	file, err := newReportService(new(MockUserStore), transactions).ExportAllTransactions(context.Background(), model.TransactionFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "admin_transactions_20240615_103000.pdf", file.Name)
	assert.Equal(t, "%PDF", string(file.Body[:4]))
}

func TestReportService_GenerateSystemReport(t *testing.T) {
	t.Parallel()

	baseMocks := func() (*MockUserStore, *MockTransactionStore) {
		users := new(MockUserStore)
		transactions := new(MockTransactionStore)
		users.On("Count", mock.Anything).Return(3, nil)
		users.On("CountActive", mock.Anything).Return(2, nil)
		transactions.On("Totals", mock.Anything, mock.Anything).Return(model.Totals{Income: 100, Expense: 40, IncomeCount: 1, ExpenseCount: 2}, nil)
		return users, transactions
	}

	t.Run("overview by default", func(t *testing.T) {
		users, transactions := baseMocks()
		transactions.On("CategoryBreakdown", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
			return f.Type == model.TypeExpense
		}), maxReportCategories).Return([]model.CategoryTotal{{Category: "Food", Total: 40, Count: 2}}, nil)
		transactions.On("MonthlyTotals", mock.Anything, mock.Anything).Return([]model.MonthlyTotal{{Month: "2024-06", Income: 100, Expense: 40, Balance: 60}}, nil)

		file, err := newReportService(users, transactions).GenerateSystemReport(context.Background(), model.SystemReportRequest{Format: "csv"})
		require.NoError(t, err)
		assert.Equal(t, "system_report_overview_20240615_103000.csv", file.Name)

		body := string(file.Body)
		assert.Contains(t, body, "Admin System Report")
		assert.Contains(t, body, "Total Users,3")
		assert.Contains(t, body, "Food,40.00,2,100.0%")
		assert.Contains(t, body, "2024-06,100.00,40.00,60.00")
	})

	t.Run("user activity", func(t *testing.T) {
		users, transactions := baseMocks()
		transactions.On("UserActivity", mock.Anything, mock.Anything, maxReportActivityRows).Return([]model.UserActivity{
			{UserID: "user-1", UserInfo: &model.UserInfo{Username: "alice", Email: "alice@example.com"}, TotalIncome: 100, TotalExpense: 40, NetBalance: 60, TransactionCount: 3},
		}, nil)

		file, err := newReportService(users, transactions).GenerateSystemReport(context.Background(),
			model.SystemReportRequest{Format: "csv", Type: model.ReportUserActivity})
		require.NoError(t, err)
		assert.Contains(t, string(file.Body), "alice,alice@example.com,100.00,40.00,60.00,3")
		transactions.AssertNotCalled(t, "MonthlyTotals", mock.Anything, mock.Anything)
	})

	t.Run("transaction details", func(t *testing.T) {
		users, transactions := baseMocks()
		transactions.On("ListAll", mock.Anything, mock.Anything, maxReportDetailRows).Return(sampleTransactions(), nil)

		file, err := newReportService(users, transactions).GenerateSystemReport(context.Background(),
			model.SystemReportRequest{Type: model.ReportTransactionDetails})
		require.NoError(t, err)
		assert.Equal(t, "system_report_transaction-details_20240615_103000.xlsx", file.Name)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := newReportService(new(MockUserStore), new(MockTransactionStore)).GenerateSystemReport(context.Background(),
			model.SystemReportRequest{Type: "everything"})
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})
}
