package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"money-manager/internal/event"
	"money-manager/internal/model"
	"money-manager/internal/service"
)

func newUserHandler(users *service.MockUserStore, transactions *service.MockTransactionStore) *UserHandler {
	return NewUserHandler(
		service.NewProfileService(users, new(service.MockSender), event.NewBus()),
		service.NewInsightsService(transactions),
		service.NewReportService(users, transactions),
	)
}

func TestUserHandler_Dashboard(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newUserHandler(new(service.MockUserStore), new(service.MockTransactionStore)).Dashboard(rec,
		newRequest(http.MethodGet, "/api/v1/user/dashboard?range=decade", "", &userClaims))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_MonthlyTrend(t *testing.T) {
	t.Parallel()

	transactions := new(service.MockTransactionStore)
	transactions.On("MonthlyTotals", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
		return f.UserID == "user-1" && f.DateFrom != nil
	})).Return([]model.MonthlyTotal{{Month: "2024-05", Income: 10, Expense: 4, Balance: 6}}, nil)

	rec := httptest.NewRecorder()
	newUserHandler(new(service.MockUserStore), transactions).MonthlyTrend(rec,
		newRequest(http.MethodGet, "/api/v1/user/charts/monthly-trend", "", &userClaims))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"month":"2024-05"`)
}

func TestUserHandler_UpdateProfileConflict(t *testing.T) {
	t.Parallel()

	users := new(service.MockUserStore)
	users.On("FindByID", mock.Anything, "user-1").Return(model.User{ID: "user-1", Email: "alice@example.com"}, nil)
	users.On("ExistsByEmail", mock.Anything, "bob@example.com", "user-1").Return(true, nil)

	rec := httptest.NewRecorder()
	newUserHandler(users, new(service.MockTransactionStore)).UpdateProfile(rec,
		newRequest(http.MethodPut, "/api/v1/user/profile", `{"email":"bob@example.com"}`, &userClaims))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUserHandler_GenerateReportEmpty(t *testing.T) {
	t.Parallel()

	transactions := new(service.MockTransactionStore)
	transactions.On("ListAll", mock.Anything, mock.Anything, mock.Anything).Return([]model.Transaction{}, nil)

	rec := httptest.NewRecorder()
	newUserHandler(new(service.MockUserStore), transactions).GenerateReport(rec,
		newRequest(http.MethodPost, "/api/v1/user/reports/generate", `{"format":"csv"}`, &userClaims))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
