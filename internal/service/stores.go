package service

import (
	"context"
	"time"

	"money-manager/internal/model"
)

// The store interfaces are satisfied by the pgx repositories in
// internal/repository and by testify mocks in tests.

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdateProfile(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	SetActive(ctx context.Context, userID string, active bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query model.UserQuery) ([]model.User, model.Meta, error)
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type TokenStore interface {
	Replace(ctx context.Context, t model.VerificationToken) error
	FindByToken(ctx context.Context, token string) (model.VerificationToken, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c model.Category) error
	CreateDefaults(ctx context.Context, userID string, now time.Time) error
	FindByID(ctx context.Context, id string) (model.Category, error)
	List(ctx context.Context, userID string, entryType string) ([]model.Category, error)
	Update(ctx context.Context, c model.Category, renamed bool) error
	Delete(ctx context.Context, id string, userID string) error
	CountTransactions(ctx context.Context, id string, userID string) (int, error)
}

type TransactionStore interface {
	Create(ctx context.Context, t model.Transaction) error
	FindByID(ctx context.Context, id string, userID string) (model.Transaction, error)
	Update(ctx context.Context, t model.Transaction) error
	Delete(ctx context.Context, id string, userID string) error
	DeleteMany(ctx context.Context, userID string, ids []string) (int64, error)
	List(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, model.Meta, error)
	ListAll(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.Transaction, error)
	Suggestions(ctx context.Context, userID string, limit int) ([]string, error)
	Totals(ctx context.Context, filter model.TransactionFilter) (model.Totals, error)
	CategoryBreakdown(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.CategoryTotal, error)
	MonthlyTotals(ctx context.Context, filter model.TransactionFilter) ([]model.MonthlyTotal, error)
	FirstDate(ctx context.Context, userID string) (*time.Time, error)
	UserActivity(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.UserActivity, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}
