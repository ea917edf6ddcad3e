package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"money-manager/internal/event"
	"money-manager/internal/mail"
	"money-manager/internal/model"
	"money-manager/internal/util"
	"money-manager/pkg/apierror"
)

type ProfileService struct {
	users      UserStore
	mailer     mail.Sender
	bus        event.Bus
	bcryptCost int
	now        func() time.Time
}

func NewProfileService(users UserStore, mailer mail.Sender, bus event.Bus) *ProfileService {
	return &ProfileService{users: users, mailer: mailer, bus: bus, bcryptCost: defaultBCryptCost, now: time.Now}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user not found", "")
	}
	return user, err
}

// UpdateProfile applies only the fields present in req.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if req.FirstName != nil {
		user.FirstName = util.CleanText(*req.FirstName, 100)
	}
	if req.LastName != nil {
		user.LastName = util.CleanText(*req.LastName, 100)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !isValidEmail(email) {
			return model.User{}, errInvalidEmail
		}

		taken, err := s.users.ExistsByEmail(ctx, email, user.ID)
		if err != nil {
			return model.User{}, err
		}
		if taken {
			return model.User{}, apierror.Conflict("email already in use", email)
		}
		user.Email = email
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, apierror.Conflict("email already in use", user.Email)
		}
		return model.User{}, err
	}
	return user, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apierror.BadRequest("current password and new password are required", "")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apierror.New("UNAUTHORIZED", "current password is incorrect", "", http.StatusUnauthorized)
	}
	if !isStrongPassword(req.NewPassword) {
		return errWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	msg, err := mail.PasswordChangedMessage(user.Email, user.Username, s.now())
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Warn("password change notification not sent", "user_id", user.ID, "error", err)
	}

	s.bus.Publish(event.New(ctx, event.TypePasswordChanged, event.StatusSuccess, "user:"+user.ID, nil))
	return nil
}

// DeleteAccount removes the user after re-checking the password. Categories,
// transactions and ledger tokens cascade in the database.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string, req model.DeleteAccountRequest) error {
	if req.Password == "" {
		return apierror.BadRequest("password is required to delete your account", "")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return apierror.New("UNAUTHORIZED", "password is incorrect", "", http.StatusUnauthorized)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.bus.Publish(event.New(ctx, event.TypeAccountDeleted, event.StatusSuccess, "user:"+user.ID,
		map[string]string{"username": user.Username}))
	return nil
}
