package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"money-manager/internal/mail"
	"money-manager/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) MarkEmailVerified(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserStore) SetActive(ctx context.Context, userID string, active bool) error {
	args := m.Called(ctx, userID, active)
	return args.Error(0)
}

func (m *MockUserStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) List(ctx context.Context, query model.UserQuery) ([]model.User, model.Meta, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockUserStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserStore) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Replace(ctx context.Context, t model.VerificationToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTokenStore) FindByToken(ctx context.Context, token string) (model.VerificationToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.VerificationToken), args.Error(1)
}

func (m *MockTokenStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockCategoryStore struct {
	mock.Mock
}

func (m *MockCategoryStore) Create(ctx context.Context, c model.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCategoryStore) CreateDefaults(ctx context.Context, userID string, now time.Time) error {
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *MockCategoryStore) FindByID(ctx context.Context, id string) (model.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryStore) List(ctx context.Context, userID string, entryType string) ([]model.Category, error) {
	args := m.Called(ctx, userID, entryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryStore) Update(ctx context.Context, c model.Category, renamed bool) error {
	args := m.Called(ctx, c, renamed)
	return args.Error(0)
}

func (m *MockCategoryStore) Delete(ctx context.Context, id string, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockCategoryStore) CountTransactions(ctx context.Context, id string, userID string) (int, error) {
	args := m.Called(ctx, id, userID)
	return args.Int(0), args.Error(1)
}

type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) Create(ctx context.Context, t model.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionStore) FindByID(ctx context.Context, id string, userID string) (model.Transaction, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *MockTransactionStore) Update(ctx context.Context, t model.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionStore) Delete(ctx context.Context, id string, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockTransactionStore) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionStore) List(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, model.Meta, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.Transaction), args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockTransactionStore) ListAll(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.Transaction, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockTransactionStore) Suggestions(ctx context.Context, userID string, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTransactionStore) Totals(ctx context.Context, filter model.TransactionFilter) (model.Totals, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(model.Totals), args.Error(1)
}

func (m *MockTransactionStore) CategoryBreakdown(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.CategoryTotal, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryTotal), args.Error(1)
}

func (m *MockTransactionStore) MonthlyTotals(ctx context.Context, filter model.TransactionFilter) ([]model.MonthlyTotal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MonthlyTotal), args.Error(1)
}

func (m *MockTransactionStore) FirstDate(ctx context.Context, userID string) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockTransactionStore) UserActivity(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.UserActivity, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserActivity), args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Log(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditStore) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.AuditEntry), args.Get(1).(model.Meta), args.Error(2)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
