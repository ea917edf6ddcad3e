package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"money-manager/internal/metrics"
	"money-manager/internal/model"
)

const ledgerTokenBytes = 32

// VerificationLedger issues and redeems single-use email verification and
// password reset tokens. Every (user, kind) pair has at most one live token.
type VerificationLedger struct {
	tokens TokenStore
	ttls   map[model.TokenKind]time.Duration
	now    func() time.Time
}

func NewVerificationLedger(tokens TokenStore, emailVerificationTTL time.Duration, passwordResetTTL time.Duration) *VerificationLedger {
	return &VerificationLedger{
		tokens: tokens,
		ttls: map[model.TokenKind]time.Duration{
			model.KindEmailVerification: emailVerificationTTL,
			model.KindPasswordReset:     passwordResetTTL,
		},
		now: time.Now,
	}
}

func (l *VerificationLedger) TTL(kind model.TokenKind) time.Duration {
	return l.ttls[kind]
}

// Issue replaces any earlier token of the same kind for userID.
func (l *VerificationLedger) Issue(ctx context.Context, userID string, kind model.TokenKind) (model.VerificationToken, error) {
	if !kind.Valid() {
		return model.VerificationToken{}, fmt.Errorf("issue token: unknown kind %q", kind)
	}

	raw, err := newOpaqueToken()
	if err != nil {
		return model.VerificationToken{}, err
	}

	now := l.now().UTC()
	token := model.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     raw,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttls[kind]),
	}

	if err := l.tokens.Replace(ctx, token); err != nil {
		return model.VerificationToken{}, err
	}
	return token, nil
}

// Redeem marks the token used. On model.ErrTokenAlreadyUsed the stored
// token is still returned so callers can inspect its owner.
func (l *VerificationLedger) Redeem(ctx context.Context, raw string, kind model.TokenKind) (model.VerificationToken, error) {
	token, err := l.redeem(ctx, raw, kind)
	metrics.LedgerRedemptionsTotal.WithLabelValues(string(kind), redemptionResult(err)).Inc()
	return token, err
}

func (l *VerificationLedger) redeem(ctx context.Context, raw string, kind model.TokenKind) (model.VerificationToken, error) {
	token, err := l.tokens.FindByToken(ctx, raw)
	if err != nil {
		return model.VerificationToken{}, err
	}
	if token.Kind != kind {
		return model.VerificationToken{}, model.ErrTokenNotFound
	}
	if token.Used {
		return token, model.ErrTokenAlreadyUsed
	}

	now := l.now().UTC()
	if token.Expired(now) {
		return token, model.ErrTokenExpired
	}

	marked, err := l.tokens.MarkUsed(ctx, token.ID, now)
	if err != nil {
		return model.VerificationToken{}, err
	}
	if !marked {
		// another request redeemed it between the read and the update
		return token, model.ErrTokenAlreadyUsed
	}

	token.Used = true
	token.UsedAt = &now
	return token, nil
}

// Purge removes tokens that expired more than retention ago.
func (l *VerificationLedger) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	removed, err := l.tokens.PurgeExpired(ctx, l.now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("purged expired verification tokens", "count", removed)
	}
	return removed, nil
}

func redemptionResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, model.ErrTokenNotFound):
		return "invalid"
	case errors.Is(err, model.ErrTokenAlreadyUsed):
		return "used"
	case errors.Is(err, model.ErrTokenExpired):
		return "expired"
	default:
		return metrics.ResultFailure
	}
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, ledgerTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
