package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"money-manager/internal/event"
	"money-manager/internal/model"
	"money-manager/pkg/apierror"
)

// Authenticator verifies a bearer token and confirms its subject is still an
// active account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "MISSING_TOKEN", "authorization token is missing")
			return
		}

		claims, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) {
				writeJSONError(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Message)
				return
			}
			slog.Error("authenticate request", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth. It trusts the role claim.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		if !claims.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// WithClaims stores the identity and extends the event actor with it.
func WithClaims(ctx context.Context, claims model.AuthClaims) context.Context {
	actor := event.ActorFromContext(ctx)
	actor.UserID = claims.UserID
	actor.Role = claims.Role

	ctx = event.WithActor(ctx, actor)
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AuthClaims)
	return claims, ok
}
