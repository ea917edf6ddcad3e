package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"money-manager/internal/model"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, c model.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, user_id, name, type, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Name, c.Type, c.IsDefault, c.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// CreateDefaults inserts model.DefaultCategories for a new user in one batch.
func (r *CategoryRepository) CreateDefaults(ctx context.Context, userID string, now time.Time) error {
	batch := &pgx.Batch{}
	for _, def := range model.DefaultCategories {
		batch.Queue(
			`INSERT INTO categories (id, user_id, name, type, is_default, created_at)
			 VALUES ($1, $2, $3, $4, true, $5)
			 ON CONFLICT DO NOTHING`,
			uuid.NewString(), userID, def.Name, def.Type, now)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("create default categories: %w", err)
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (model.Category, error) {
	if !validID(id) {
		return model.Category{}, model.ErrCategoryNotFound
	}

	var c model.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, type, is_default, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, model.ErrCategoryNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context, userID string, entryType string) ([]model.Category, error) {
	sql := `SELECT id, user_id, name, type, is_default, created_at FROM categories WHERE user_id = $1`
	args := []any{userID}
	if entryType != "" {
		sql += ` AND type = $2`
		args = append(args, entryType)
	}
	sql += ` ORDER BY lower(name)`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Update saves name and type and, when renamed, rewrites the denormalized
// category_name on the owner's transactions in the same transaction.
func (r *CategoryRepository) Update(ctx context.Context, c model.Category, renamed bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin category update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE categories SET name = $2, type = $3 WHERE id = $1`, c.ID, c.Name, c.Type)
	if isUniqueViolation(err) {
		return model.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}

	if renamed {
		if _, err := tx.Exec(ctx,
			`UPDATE transactions SET category_name = $3, updated_at = now()
			 WHERE category_id = $1 AND user_id = $2`, c.ID, c.UserID, c.Name); err != nil {
			return fmt.Errorf("propagate category name: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit category update: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) CountTransactions(ctx context.Context, id string, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = $1 AND user_id = $2`, id, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return count, nil
}
