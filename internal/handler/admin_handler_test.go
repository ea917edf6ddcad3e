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

var adminClaims = model.AuthClaims{UserID: "admin-1", Role: model.RoleAdmin}

func newAdminHandler(users *service.MockUserStore, transactions *service.MockTransactionStore) *AdminHandler {
	return NewAdminHandler(
		service.NewAdminService(users, transactions, event.NewBus()),
		service.NewReportService(users, transactions),
	)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Parallel()

	users := new(service.MockUserStore)
	users.On("List", mock.Anything, model.UserQuery{Search: "ali", Page: 1, PerPage: 20}).
		Return([]model.User{{ID: "user-1", Username: "alice"}}, model.NewMeta(1, 20, 1), nil)

	rec := httptest.NewRecorder()
	newAdminHandler(users, new(service.MockTransactionStore)).ListUsers(rec,
		newRequest(http.MethodGet, "/api/v1/admin/users?search=ali", "", &adminClaims))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, 1, body.Meta.Total)
}

func TestAdminHandler_ToggleOwnAccount(t *testing.T) {
	t.Parallel()

	users := new(service.MockUserStore)
	users.On("FindByID", mock.Anything, "admin-1").Return(model.User{ID: "admin-1", Role: model.RoleAdmin, IsActive: true}, nil)

	rec := httptest.NewRecorder()
	newAdminHandler(users, new(service.MockTransactionStore)).ToggleStatus(rec,
		newRequest(http.MethodPut, "/api/v1/admin/users/admin-1/toggle-status", "", &adminClaims, "id", "admin-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminHandler_ListTransactionsByUser(t *testing.T) {
	t.Parallel()

	transactions := new(service.MockTransactionStore)
	transactions.On("List", mock.Anything, mock.MatchedBy(func(f model.TransactionFilter) bool {
		return f.UserID == "user-2" && f.PerPage == 20
	})).Return([]model.Transaction{{ID: "tx-1", UserInfo: &model.UserInfo{Username: "bob"}}}, model.NewMeta(1, 20, 1), nil)

	rec := httptest.NewRecorder()
	newAdminHandler(new(service.MockUserStore), transactions).ListTransactions(rec,
		newRequest(http.MethodGet, "/api/v1/admin/transactions?user_id=user-2", "", &adminClaims))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_info":{"username":"bob"`)
}

func TestAdminHandler_GenerateReportInvalidType(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newAdminHandler(new(service.MockUserStore), new(service.MockTransactionStore)).GenerateReport(rec,
		newRequest(http.MethodPost, "/api/v1/admin/reports/generate", `{"type":"everything"}`, &adminClaims))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
