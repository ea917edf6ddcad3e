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

const userColumns = `id, username, email, password_hash, first_name, last_name,
	role, is_active, email_verified, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) findOne(ctx context.Context, op string, where string, arg any) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, model.ErrUserNotFound
	}
	return r.findOne(ctx, "find user by id", "id = $1", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, "find user by username", "lower(username) = lower($1)", strings.TrimSpace(username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, "find user by email", "lower(email) = lower($1)", strings.TrimSpace(email))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

// ExistsByEmail ignores the user with excludeID so a profile update can keep
// its own address.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND id::text <> $2)`,
		strings.TrimSpace(email), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name,
		                    role, is_active, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName,
		u.Role, u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = $5 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, strings.ToLower(u.Email), time.Now().UTC())
	if isUniqueViolation(err) {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	return r.exec(ctx, "mark email verified",
		`UPDATE users SET email_verified = true, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC())
}

func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	return r.exec(ctx, "set user active",
		`UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`,
		userID, active, time.Now().UTC())
}

// Delete removes the user; tokens, categories and transactions cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *UserRepository) exec(ctx context.Context, op string, sql string, id string, args ...any) error {
	if !validID(id) {
		return model.ErrUserNotFound
	}
	tag, err := r.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, query model.UserQuery) ([]model.User, model.Meta, error) {
	page, perPage := normalizePage(query.Page, query.PerPage, 10, 100)

	where := ""
	args := make([]any, 0, 3)
	if search := strings.TrimSpace(query.Search); search != "" {
		where = `WHERE username ILIKE $1 OR email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count users: %w", err)
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, model.NewMeta(page, perPage, total), rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
