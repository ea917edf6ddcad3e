package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"money-manager/internal/model"
)

// TokenCodec signs and verifies HS256 access tokens. It holds no state other
// than the secret and the clock.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *TokenCodec) Issue(subjectID string, role string) (string, error) {
	now := c.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subjectID,
		"role": role,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttl).Unix(),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify returns model.ErrTokenExpired once now reaches exp and
// model.ErrTokenMalformed for every other failure.
func (c *TokenCodec) Verify(tokenString string) (model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return model.AuthClaims{}, model.ErrTokenExpired
	}
	if err != nil || !parsed.Valid {
		return model.AuthClaims{}, model.ErrTokenMalformed
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return model.AuthClaims{}, model.ErrTokenMalformed
	}

	claims := model.AuthClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if claims.UserID == "" {
		return model.AuthClaims{}, model.ErrTokenMalformed
	}

	if iat, err := claimsMap.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := claimsMap.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
