package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	t.Run("formats with and without details", func(t *testing.T) {
		require.Equal(t, "NOT_FOUND: user not found", NotFound("user not found", "").Error())
		require.Equal(t, "BAD_REQUEST: invalid date (date_from)", BadRequest("invalid date", "date_from").Error())
	})

	t.Run("nil error renders empty", func(t *testing.T) {
		var e *APIError
		require.Equal(t, "", e.Error())
	})

	t.Run("with data does not mutate the original", func(t *testing.T) {
		base := Forbidden("email not verified")
		withData := base.WithData(map[string]any{"email": "a@b.co"})

		require.Nil(t, base.Data)
		require.NotNil(t, withData.Data)
		require.Equal(t, 403, withData.HTTPStatus)
	})

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("register: %w", Conflict("email already exists", "email"))

		var apiErr *APIError
		require.True(t, errors.As(wrapped, &apiErr))
		require.Equal(t, "CONFLICT", apiErr.Code)
		require.Equal(t, 409, apiErr.HTTPStatus)
	})
}
