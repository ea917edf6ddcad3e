package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"money-manager/internal/model"
)

type txFixture struct {
	transactions *MockTransactionStore
	categories   *MockCategoryStore
	svc          *TransactionService
}

func newTxFixture() *txFixture {
	f := &txFixture{transactions: new(MockTransactionStore), categories: new(MockCategoryStore)}
	f.svc = NewTransactionService(f.transactions, f.categories)
	f.svc.now = clock(fixedNow)
	return f
}

var foodCategory = model.Category{ID: "cat-1", UserID: "user-1", Name: "Food", Type: model.TypeExpense, IsDefault: true}

func TestTransactionService_Create(t *testing.T) {
	t.Parallel()

	t.Run("denormalises the category name", func(t *testing.T) {
		f := newTxFixture()
		f.categories.On("FindByID", mock.Anything, "cat-1").Return(foodCategory, nil)
		f.transactions.On("Create", mock.Anything, mock.MatchedBy(func(tx model.Transaction) bool {
			return tx.CategoryName == "Food" && tx.Amount == 12.5 && tx.UserID == "user-1"
		})).Return(nil)

		tx, err := f.svc.Create(context.Background(), "user-1", model.CreateTransactionRequest{
			Amount: 12.5, Type: model.TypeExpense, CategoryID: "cat-1", Date: "2024-06-01", Note: "lunch",
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), tx.Date)
		assert.Equal(t, "lunch", tx.Note)
	})

	t.Run("missing date defaults to now", func(t *testing.T) {
		f := newTxFixture()
		f.categories.On("FindByID", mock.Anything, "cat-1").Return(foodCategory, nil)
		f.transactions.On("Create", mock.Anything, mock.Anything).Return(nil)

		tx, err := f.svc.Create(context.Background(), "user-1", model.CreateTransactionRequest{
			Amount: 3, Type: model.TypeExpense, CategoryID: "cat-1",
		})
		require.NoError(t, err)
		assert.Equal(t, fixedNow, tx.Date)
	})

	t.Run("category of another user", func(t *testing.T) {
		f := newTxFixture()
		f.categories.On("FindByID", mock.Anything, "cat-1").Return(foodCategory, nil)

		_, err := f.svc.Create(context.Background(), "user-2", model.CreateTransactionRequest{
			Amount: 3, Type: model.TypeExpense, CategoryID: "cat-1",
		})
		requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
	})

	invalid := []struct {
		name string
		req  model.CreateTransactionRequest
	}{
		{name: "zero amount", req: model.CreateTransactionRequest{Amount: 0, Type: model.TypeExpense, CategoryID: "cat-1"}},
		{name: "negative amount", req: model.CreateTransactionRequest{Amount: -1, Type: model.TypeExpense, CategoryID: "cat-1"}},
		{name: "rounds to zero cents", req: model.CreateTransactionRequest{Amount: 0.004, Type: model.TypeExpense, CategoryID: "cat-1"}},
		{name: "exceeds column range", req: model.CreateTransactionRequest{Amount: 1e12, Type: model.TypeExpense, CategoryID: "cat-1"}},
		{name: "bad type", req: model.CreateTransactionRequest{Amount: 1, Type: "gift", CategoryID: "cat-1"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newTxFixture()
			_, err := f.svc.Create(context.Background(), "user-1", tt.req)
			requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
		})
	}

	t.Run("rounds amount to cents", func(t *testing.T) {
		f := newTxFixture()
		f.categories.On("FindByID", mock.Anything, "cat-1").Return(foodCategory, nil)
		f.transactions.On("Create", mock.Anything, mock.MatchedBy(func(tx model.Transaction) bool {
			return tx.Amount == 12.35
		})).Return(nil)

		tx, err := f.svc.Create(context.Background(), "user-1", model.CreateTransactionRequest{
			Amount: 12.346, Type: model.TypeExpense, CategoryID: "cat-1",
		})
		require.NoError(t, err)
		assert.Equal(t, 12.35, tx.Amount)
	})

	t.Run("bad date", func(t *testing.T) {
		f := newTxFixture()
		f.categories.On("FindByID", mock.Anything, "cat-1").Return(foodCategory, nil)

		_, err := f.svc.Create(context.Background(), "user-1", model.CreateTransactionRequest{
			Amount: 1, Type: model.TypeExpense, CategoryID: "cat-1", Date: "01/06/2024",
		})
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestTransactionService_List(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	low, high := 10.0, 5.0

	tests := []struct {
		name   string
		filter model.TransactionFilter
	}{
		{name: "bad type", filter: model.TransactionFilter{UserID: "user-1", Type: "gift"}},
		{name: "inverted dates", filter: model.TransactionFilter{UserID: "user-1", DateFrom: &from, DateTo: &to}},
		{name: "inverted amounts", filter: model.TransactionFilter{UserID: "user-1", AmountMin: &low, AmountMax: &high}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTxFixture()
			_, _, err := f.svc.List(context.Background(), tt.filter)
			requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
			f.transactions.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}

	t.Run("passes a valid filter through", func(t *testing.T) {
		f := newTxFixture()
		filter := model.TransactionFilter{UserID: "user-1", Type: model.TypeIncome, Page: 2, PerPage: 10}
		f.transactions.On("List", mock.Anything, filter).Return([]model.Transaction{{ID: "tx-1"}}, model.NewMeta(2, 10, 11), nil)

		items, meta, err := f.svc.List(context.Background(), filter)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, 11, meta.Total)
	})
}

func TestTransactionService_Update(t *testing.T) {
	t.Parallel()

	existing := model.Transaction{ID: "tx-1", UserID: "user-1", Amount: 10, Type: model.TypeExpense, CategoryID: "cat-1", CategoryName: "Food", Note: "old"}

	t.Run("applies present fields only", func(t *testing.T) {
		f := newTxFixture()
		amount := 42.0
		f.transactions.On("FindByID", mock.Anything, "tx-1", "user-1").Return(existing, nil)
		f.transactions.On("Update", mock.Anything, mock.MatchedBy(func(tx model.Transaction) bool {
			return tx.Amount == 42 && tx.Note == "old" && tx.CategoryName == "Food" && tx.UpdatedAt.Equal(fixedNow)
		})).Return(nil)

		updated, err := f.svc.Update(context.Background(), "user-1", "tx-1", model.UpdateTransactionRequest{Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, 42.0, updated.Amount)
	})

	t.Run("category change refreshes the name", func(t *testing.T) {
		f := newTxFixture()
		pets := model.Category{ID: "cat-2", UserID: "user-1", Name: "Pets", Type: model.TypeExpense}
		f.transactions.On("FindByID", mock.Anything, "tx-1", "user-1").Return(existing, nil)
		f.categories.On("FindByID", mock.Anything, "cat-2").Return(pets, nil)
		f.transactions.On("Update", mock.Anything, mock.Anything).Return(nil)

		updated, err := f.svc.Update(context.Background(), "user-1", "tx-1", model.UpdateTransactionRequest{CategoryID: strPtr("cat-2")})
		require.NoError(t, err)
		assert.Equal(t, "Pets", updated.CategoryName)
	})

	t.Run("amount out of range", func(t *testing.T) {
		for _, amount := range []float64{0.004, 1e12} {
			f := newTxFixture()
			f.transactions.On("FindByID", mock.Anything, "tx-1", "user-1").Return(existing, nil)

			_, err := f.svc.Update(context.Background(), "user-1", "tx-1", model.UpdateTransactionRequest{Amount: &amount})
			requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
			f.transactions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		}
	})

	t.Run("missing transaction", func(t *testing.T) {
		f := newTxFixture()
		f.transactions.On("FindByID", mock.Anything, "tx-9", "user-1").Return(model.Transaction{}, model.ErrTransactionNotFound)

		_, err := f.svc.Update(context.Background(), "user-1", "tx-9", model.UpdateTransactionRequest{Note: strPtr("x")})
		requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestTransactionService_Delete(t *testing.T) {
	t.Parallel()

	f := newTxFixture()
	f.transactions.On("Delete", mock.Anything, "tx-1", "user-1").Return(nil)
	f.transactions.On("Delete", mock.Anything, "tx-2", "user-1").Return(model.ErrTransactionNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), "user-1", "tx-1"))
	requireAPIError(t, f.svc.Delete(context.Background(), "user-1", "tx-2"), http.StatusNotFound, "NOT_FOUND")
}

func TestTransactionService_BulkDelete(t *testing.T) {
	t.Parallel()

	t.Run("reports the number actually deleted", func(t *testing.T) {
		f := newTxFixture()
		ids := []string{"tx-1", "tx-2", "tx-3"}
		f.transactions.On("DeleteMany", mock.Anything, "user-1", ids).Return(int64(2), nil)

		result, err := f.svc.BulkDelete(context.Background(), "user-1", ids)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.DeletedCount)
		assert.Equal(t, "2 transactions deleted successfully", result.Message)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := newTxFixture().svc.BulkDelete(context.Background(), "user-1", nil)
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("too many", func(t *testing.T) {
		ids := make([]string, maxBulkDeleteSize+1)
		for i := range ids {
			ids[i] = fmt.Sprintf("tx-%d", i)
		}
		_, err := newTxFixture().svc.BulkDelete(context.Background(), "user-1", ids)
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestTransactionService_Duplicate(t *testing.T) {
	t.Parallel()

	f := newTxFixture()
	original := model.Transaction{
		ID: "tx-1", UserID: "user-1", Amount: 10, Type: model.TypeExpense,
		CategoryID: "cat-1", CategoryName: "Food", Note: "coffee",
		Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	f.transactions.On("FindByID", mock.Anything, "tx-1", "user-1").Return(original, nil)
	f.transactions.On("Create", mock.Anything, mock.Anything).Return(nil)

	clone, err := f.svc.Duplicate(context.Background(), "user-1", "tx-1")
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, clone.ID)
	assert.Equal(t, "Copy of: coffee", clone.Note)
	assert.Equal(t, fixedNow, clone.Date)
	assert.Equal(t, original.Amount, clone.Amount)
	assert.Equal(t, original.CategoryID, clone.CategoryID)
}

func TestTransactionService_Suggestions(t *testing.T) {
	t.Parallel()

	f := newTxFixture()
	f.transactions.On("Suggestions", mock.Anything, "user-1", maxSuggestions).Return(nil, nil)

	result, err := f.svc.Suggestions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, result.Suggestions)
	assert.Empty(t, result.Suggestions)
}
