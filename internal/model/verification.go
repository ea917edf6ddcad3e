package model

import "time"

type TokenKind string

const (
	KindEmailVerification TokenKind = "email_verification"
	KindPasswordReset     TokenKind = "password_reset"
)

func (k TokenKind) Valid() bool {
	return k == KindEmailVerification || k == KindPasswordReset
}

// VerificationToken is a single-use ledger entry.
type VerificationToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Token     string     `json:"-"`
	Kind      TokenKind  `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Expired reports whether the token is past its expiry at now.
func (t VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
