package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"money-manager/internal/model"
)

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("test-secret", 24*time.Hour)
	codec.now = clock(fixedNow)

	token, err := codec.Issue("user-1", model.RoleAdmin)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.IssuedAt.Equal(fixedNow))
	assert.True(t, claims.ExpiresAt.Equal(fixedNow.Add(24*time.Hour)))
}

func TestTokenCodec_Verify(t *testing.T) {
	t.Parallel()

	issuer := NewTokenCodec("test-secret", time.Hour)
	issuer.now = clock(fixedNow)
	valid, err := issuer.Issue("user-1", model.RoleUser)
	require.NoError(t, err)

	otherSecret := NewTokenCodec("other-secret", time.Hour)
	otherSecret.now = clock(fixedNow)
	forged, err := otherSecret.Issue("user-1", model.RoleAdmin)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "user-1", "role": "admin", "exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "role": "admin", "exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin", "exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		now   time.Time
		want  error
	}{
		{name: "valid just before expiry", token: valid, now: fixedNow.Add(time.Hour - time.Second)},
		{name: "expired at exp", token: valid, now: fixedNow.Add(time.Hour), want: model.ErrTokenExpired},
		{name: "expired later", token: valid, now: fixedNow.Add(48 * time.Hour), want: model.ErrTokenExpired},
		{name: "wrong secret", token: forged, now: fixedNow, want: model.ErrTokenMalformed},
		{name: "other algorithm", token: hs512, now: fixedNow, want: model.ErrTokenMalformed},
		{name: "alg none", token: unsigned, now: fixedNow, want: model.ErrTokenMalformed},
		{name: "missing subject", token: noSubject, now: fixedNow, want: model.ErrTokenMalformed},
		{name: "garbage", token: "not.a.jwt", now: fixedNow, want: model.ErrTokenMalformed},
		{name: "empty", token: "", now: fixedNow, want: model.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewTokenCodec("test-secret", time.Hour)
			codec.now = clock(tt.now)

			_, err := codec.Verify(tt.token)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}
