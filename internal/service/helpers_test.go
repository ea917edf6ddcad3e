package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"money-manager/pkg/apierror"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierror.APIError {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.HTTPStatus, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
