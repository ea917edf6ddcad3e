package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"money-manager/internal/event"
	"money-manager/internal/mail"
	"money-manager/internal/model"
)

func newProfileService(users *MockUserStore, mailer *MockSender) *ProfileService {
	svc := NewProfileService(users, mailer, event.NewBus())
	svc.bcryptCost = bcrypt.MinCost
	svc.now = clock(fixedNow)
	return svc
}

func TestProfileService_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		users := new(MockUserStore)
		user := verifiedUser(t)
		user.FirstName, user.LastName = "Alice", "Smith"
		users.On("FindByID", mock.Anything, "user-1").Return(user, nil)
		users.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u model.User) bool {
			return u.FirstName == "Alicia" && u.LastName == "Smith" && u.EmailVerified
		})).Return(nil)

		updated, err := newProfileService(users, new(MockSender)).UpdateProfile(context.Background(), "user-1",
			model.UpdateProfileRequest{FirstName: strPtr(" Alicia ")})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", updated.FirstName)
		users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email taken by someone else", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)
		users.On("ExistsByEmail", mock.Anything, "bob@example.com", "user-1").Return(true, nil)

		_, err := newProfileService(users, new(MockSender)).UpdateProfile(context.Background(), "user-1",
			model.UpdateProfileRequest{Email: strPtr("Bob@Example.com")})
		requireAPIError(t, err, http.StatusConflict, "CONFLICT")
	})

	t.Run("invalid email", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)

		_, err := newProfileService(users, new(MockSender)).UpdateProfile(context.Background(), "user-1",
			model.UpdateProfileRequest{Email: strPtr("nope")})
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestProfileService_ChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("wrong current password", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)

		err := newProfileService(users, new(MockSender)).ChangePassword(context.Background(), "user-1",
			model.ChangePasswordRequest{CurrentPassword: "wrong1234", NewPassword: "another123"})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, "current password is incorrect", apiErr.Message)
	})

	t.Run("weak new password", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)

		err := newProfileService(users, new(MockSender)).ChangePassword(context.Background(), "user-1",
			model.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "12345678"})
		requireAPIError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("stores the new hash and notifies best effort", func(t *testing.T) {
		users := new(MockUserStore)
		mailer := new(MockSender)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)
		users.On("UpdatePassword", mock.Anything, "user-1", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("another123")) == nil
		})).Return(nil)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.To == "alice@example.com"
		})).Return(errors.New("smtp down"))

		err := newProfileService(users, mailer).ChangePassword(context.Background(), "user-1",
			model.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another123"})
		require.NoError(t, err)
		users.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})
}

func TestProfileService_DeleteAccount(t *testing.T) {
	t.Parallel()

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)

		err := newProfileService(users, new(MockSender)).DeleteAccount(context.Background(), "user-1",
			model.DeleteAccountRequest{Password: "wrong1234"})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")
		assert.Equal(t, "password is incorrect", apiErr.Message)
		users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes", func(t *testing.T) {
		users := new(MockUserStore)
		users.On("FindByID", mock.Anything, "user-1").Return(verifiedUser(t), nil)
		users.On("Delete", mock.Anything, "user-1").Return(nil)

		err := newProfileService(users, new(MockSender)).DeleteAccount(context.Background(), "user-1",
			model.DeleteAccountRequest{Password: "secret123"})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}
