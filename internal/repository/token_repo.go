package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"money-manager/internal/model"
)

// TokenRepository stores single-use verification and password reset tokens.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Replace deletes every token of the same (user, kind) and inserts t in one
// transaction, so at most one token per pair is ever outstanding. The
// advisory lock serializes concurrent issuers for the same pair; without it a
// second DELETE cannot see a row committed after its snapshot.
func (r *TokenRepository) Replace(ctx context.Context, t model.VerificationToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin token replace: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		t.UserID, string(t.Kind)); err != nil {
		return fmt.Errorf("lock token pair: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM verification_tokens WHERE user_id = $1 AND kind = $2`,
		t.UserID, string(t.Kind)); err != nil {
		return fmt.Errorf("delete previous tokens: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO verification_tokens (id, user_id, token, kind, created_at, expires_at, used)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		t.ID, t.UserID, t.Token, string(t.Kind), t.CreatedAt, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit token replace: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (model.VerificationToken, error) {
	var t model.VerificationToken
	var kind string
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, token, kind, created_at, expires_at, used, used_at
		 FROM verification_tokens WHERE token = $1`, token).
		Scan(&t.ID, &t.UserID, &t.Token, &kind, &t.CreatedAt, &t.ExpiresAt, &t.Used, &t.UsedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.VerificationToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.VerificationToken{}, fmt.Errorf("find token: %w", err)
	}
	t.Kind = model.TokenKind(kind)
	return t, nil
}

// MarkUsed flips used only if nobody else did first. false means the caller
// lost the race.
func (r *TokenRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE verification_tokens SET used = true, used_at = $2 WHERE id = $1 AND used = false`,
		id, usedAt)
	if err != nil {
		return false, fmt.Errorf("mark token used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
