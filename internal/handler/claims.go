package handler

import (
	"net/http"

	"money-manager/internal/middleware"
	"money-manager/internal/model"
	"money-manager/pkg/apierror"
)

// requireClaims writes a 401 and reports false when the request carries no
// authenticated identity. Routes are guarded by RequireAuth, so this only
// trips on wiring mistakes.
func requireClaims(w http.ResponseWriter, r *http.Request) (model.AuthClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("UNAUTHORIZED", "authentication required"))
		return model.AuthClaims{}, false
	}
	return claims, true
}
