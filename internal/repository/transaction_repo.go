package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"money-manager/internal/model"
)

const transactionColumns = `t.id, t.user_id, t.amount, t.type, t.category_id, t.category_name,
	t.date, t.note, t.created_at, t.updated_at, u.username, u.email`

var transactionSortColumns = map[string]string{
	"date":       "t.date",
	"amount":     "t.amount",
	"category":   "t.category_name",
	"created_at": "t.created_at",
}

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var t model.Transaction
	var username, email *string
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.CategoryID, &t.CategoryName,
		&t.Date, &t.Note, &t.CreatedAt, &t.UpdatedAt, &username, &email)
	if err != nil {
		return model.Transaction{}, err
	}
	if username != nil && email != nil {
		t.UserInfo = &model.UserInfo{Username: *username, Email: *email}
	}
	return t, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t model.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, category_id, category_name, date, note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.Amount, t.Type, t.CategoryID, t.CategoryName, t.Date, t.Note, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// FindByID only returns transactions owned by userID.
func (r *TransactionRepository) FindByID(ctx context.Context, id string, userID string) (model.Transaction, error) {
	if !validID(id) {
		return model.Transaction{}, model.ErrTransactionNotFound
	}

	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions t LEFT JOIN users u ON u.id = t.user_id
		 WHERE t.id = $1 AND t.user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, model.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, t model.Transaction) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions
		 SET amount = $3, type = $4, category_id = $5, category_name = $6, date = $7, note = $8, updated_at = $9
		 WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, t.Amount, t.Type, t.CategoryID, t.CategoryName, t.Date, t.Note, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string, userID string) error {
	if !validID(id) {
		return model.ErrTransactionNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

// DeleteMany deletes the listed transactions owned by userID. Malformed ids
// are skipped rather than failing the whole batch.
func (r *TransactionRepository) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2::uuid[])`, userID, valid)
	if err != nil {
		return 0, fmt.Errorf("bulk delete transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// buildTransactionWhere renders the filter as a WHERE clause with numbered
// placeholders. Pagination and sorting fields are ignored.
func buildTransactionWhere(filter model.TransactionFilter) (string, []any) {
	where := make([]string, 0)
	args := make([]any, 0)

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		add("t.user_id = $%d", filter.UserID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		add("(t.note ILIKE $%[1]d OR t.category_name ILIKE $%[1]d)", "%"+escapeLike(search)+"%")
	}
	if filter.Type != "" {
		add("t.type = $%d", filter.Type)
	}
	if filter.CategoryID != "" {
		add("t.category_id::text = $%d", filter.CategoryID)
	}
	if filter.DateFrom != nil {
		add("t.date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("t.date <= $%d", *filter.DateTo)
	}
	if filter.AmountMin != nil {
		add("t.amount >= $%d", *filter.AmountMin)
	}
	if filter.AmountMax != nil {
		add("t.amount <= $%d", *filter.AmountMax)
	}

	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func orderClause(filter model.TransactionFilter) string {
	column, ok := transactionSortColumns[filter.SortBy]
	if !ok {
		column = "t.date"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, t.id %s", column, direction, direction)
}

// List returns one page of transactions and the total match count. An empty
// UserID lists every user's transactions.
func (r *TransactionRepository) List(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, model.Meta, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage, 10, 100)
	where, args := buildTransactionWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t `+where, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count transactions: %w", err)
	}

	items, err := r.query(ctx, filter, where, args, perPage, (page-1)*perPage)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return items, model.NewMeta(page, perPage, total), nil
}

// ListAll returns up to limit matching transactions, for exports.
func (r *TransactionRepository) ListAll(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.Transaction, error) {
	where, args := buildTransactionWhere(filter)
	return r.query(ctx, filter, where, args, limit, 0)
}

func (r *TransactionRepository) query(ctx context.Context, filter model.TransactionFilter, where string, args []any, limit int, offset int) ([]model.Transaction, error) {
	args = append(args, limit, offset)
	sql := fmt.Sprintf(
		`SELECT %s FROM transactions t LEFT JOIN users u ON u.id = t.user_id %s %s LIMIT $%d OFFSET $%d`,
		transactionColumns, where, orderClause(filter), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	items := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Suggestions returns distinct non-empty notes and category names.
func (r *TransactionRepository) Suggestions(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT value FROM (
		     SELECT note AS value FROM transactions WHERE user_id = $1 AND btrim(note) <> ''
		     UNION
		     SELECT category_name FROM transactions WHERE user_id = $1 AND btrim(category_name) <> ''
		 ) s ORDER BY value LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, value)
	}
	return suggestions, rows.Err()
}

func (r *TransactionRepository) Totals(ctx context.Context, filter model.TransactionFilter) (model.Totals, error) {
	where, args := buildTransactionWhere(filter)

	var totals model.Totals
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0)::float8,
		        COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)::float8,
		        COUNT(*) FILTER (WHERE t.type = 'income'),
		        COUNT(*) FILTER (WHERE t.type = 'expense')
		 FROM transactions t `+where, args...).
		Scan(&totals.Income, &totals.Expense, &totals.IncomeCount, &totals.ExpenseCount)
	if err != nil {
		return model.Totals{}, fmt.Errorf("sum transactions: %w", err)
	}
	return totals, nil
}

// CategoryBreakdown groups by category name, largest total first. limit <= 0
// returns every category.
func (r *TransactionRepository) CategoryBreakdown(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.CategoryTotal, error) {
	where, args := buildTransactionWhere(filter)

	sql := `SELECT t.category_name, SUM(t.amount)::float8 AS total, COUNT(*)
	        FROM transactions t ` + where + `
	        GROUP BY t.category_name ORDER BY total DESC, t.category_name`
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	out := make([]model.CategoryTotal, 0)
	for rows.Next() {
		var c model.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MonthlyTotals groups by UTC calendar month in ascending order.
func (r *TransactionRepository) MonthlyTotals(ctx context.Context, filter model.TransactionFilter) ([]model.MonthlyTotal, error) {
	where, args := buildTransactionWhere(filter)

	rows, err := r.pool.Query(ctx,
		`SELECT to_char(t.date AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
		        COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0)::float8,
		        COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)::float8
		 FROM transactions t `+where+`
		 GROUP BY month ORDER BY month`, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	out := make([]model.MonthlyTotal, 0)
	for rows.Next() {
		var m model.MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		m.Balance = m.Income - m.Expense
		out = append(out, m)
	}
	return out, rows.Err()
}

// FirstDate returns the date of the user's oldest transaction, or nil.
func (r *TransactionRepository) FirstDate(ctx context.Context, userID string) (*time.Time, error) {
	var first *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MIN(date) FROM transactions WHERE user_id = $1`, userID).Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("first transaction date: %w", err)
	}
	return first, nil
}

// UserActivity aggregates per user, heaviest spenders first.
func (r *TransactionRepository) UserActivity(ctx context.Context, filter model.TransactionFilter, limit int) ([]model.UserActivity, error) {
	where, args := buildTransactionWhere(filter)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT t.user_id,
		        u.username, u.email,
		        COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0)::float8,
		        COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)::float8 AS total_expense,
		        COUNT(*)
		 FROM transactions t LEFT JOIN users u ON u.id = t.user_id
		 %s
		 GROUP BY t.user_id, u.username, u.email
		 ORDER BY total_expense DESC
		 LIMIT $%d`, where, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("user activity: %w", err)
	}
	defer rows.Close()

	out := make([]model.UserActivity, 0)
	for rows.Next() {
		var a model.UserActivity
		var username, email *string
		if err := rows.Scan(&a.UserID, &username, &email, &a.TotalIncome, &a.TotalExpense, &a.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		if username != nil && email != nil {
			a.UserInfo = &model.UserInfo{Username: *username, Email: *email}
		}
		a.NetBalance = a.TotalIncome - a.TotalExpense
		out = append(out, a)
	}
	return out, rows.Err()
}
