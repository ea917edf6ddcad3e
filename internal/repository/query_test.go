package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"money-manager/internal/model"
)

func TestBuildTransactionWhere(t *testing.T) {
	t.Parallel()

	t.Run("empty filter has no clause", func(t *testing.T) {
		where, args := buildTransactionWhere(model.TransactionFilter{})
		require.Empty(t, where)
		require.Empty(t, args)
	})

	t.Run("numbers placeholders in order", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		minAmount := 10.0

		where, args := buildTransactionWhere(model.TransactionFilter{
			UserID:    "u1",
			Search:    "coffee",
			Type:      model.TypeExpense,
			DateFrom:  &from,
			AmountMin: &minAmount,
		})

		require.Equal(t,
			"WHERE t.user_id = $1 AND (t.note ILIKE $2 OR t.category_name ILIKE $2) AND t.type = $3 AND t.date >= $4 AND t.amount >= $5",
			where)
		require.Equal(t, []any{"u1", "%coffee%", model.TypeExpense, from, 10.0}, args)
	})

	t.Run("escapes like wildcards in search", func(t *testing.T) {
		_, args := buildTransactionWhere(model.TransactionFilter{Search: "50%_off"})
		require.Equal(t, []any{`%50\%\_off%`}, args)
	})
}

func TestOrderClause(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ORDER BY t.date DESC, t.id DESC", orderClause(model.TransactionFilter{}))
	require.Equal(t, "ORDER BY t.amount ASC, t.id ASC", orderClause(model.TransactionFilter{SortBy: "amount", SortOrder: "ASC"}))
	require.Equal(t, "ORDER BY t.category_name DESC, t.id DESC", orderClause(model.TransactionFilter{SortBy: "category"}))
	require.Equal(t, "ORDER BY t.date DESC, t.id DESC", orderClause(model.TransactionFilter{SortBy: "amount; DROP TABLE users"}))
}

func TestBuildAuditWhere(t *testing.T) {
	t.Parallel()

	where, args := buildAuditWhere(model.AuditQuery{Action: "user.login", Status: "failure", To: "2024-01-01T00:00:00Z"})
	require.Equal(t, "WHERE lower(action) = lower($1) AND lower(status) = lower($2) AND occurred_at <= $3::timestamptz", where)
	require.Len(t, args, 3)
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()

	page, perPage := normalizePage(0, 0, 10, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 10, perPage)

	page, perPage = normalizePage(3, 500, 10, 100)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)
}

func TestValidID(t *testing.T) {
	t.Parallel()

	require.True(t, validID("8b0f4c62-2f5e-4bd5-9b83-54b3c0f7e4a1"))
	require.False(t, validID("not-a-uuid"))
	require.False(t, validID(""))
}
