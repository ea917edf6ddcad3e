package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"money-manager/internal/event"
	"money-manager/internal/mail"
	"money-manager/internal/metrics"
	"money-manager/internal/model"
	"money-manager/internal/util"
	"money-manager/pkg/apierror"
)

const (
	defaultBCryptCost = 12

	msgRegistered          = "Registration successful. Please check your email to verify your account."
	msgEmailVerified       = "Email verified successfully. You can now log in."
	msgAlreadyVerified     = "Email already verified"
	msgVerificationResent  = "Verification email sent. Please check your inbox."
	msgResetLinkSent       = "If the email exists, a password reset link has been sent"
	msgPasswordReset       = "Password reset successful. You can now log in with your new password."
	msgPasswordRequirement = "password must be at least 8 characters and include both letters and numbers"
)

var (
	errInvalidCredentials = apierror.New("UNAUTHORIZED", "invalid username/email or password", "", http.StatusUnauthorized)
	errInvalidEmail       = apierror.BadRequest("invalid email format", "")
	errWeakPassword       = apierror.BadRequest(msgPasswordRequirement, "")
	errResetTokenInvalid  = apierror.BadRequest("invalid or expired token", "")
)

type AuthService struct {
	users       UserStore
	categories  CategoryStore
	ledger      *VerificationLedger
	codec       *TokenCodec
	mailer      mail.Sender
	bus         event.Bus
	frontendURL string
	bcryptCost  int
	now         func() time.Time
}

func NewAuthService(users UserStore, categories CategoryStore, ledger *VerificationLedger, codec *TokenCodec, mailer mail.Sender, bus event.Bus, frontendURL string) *AuthService {
	return &AuthService{
		users:       users,
		categories:  categories,
		ledger:      ledger,
		codec:       codec,
		mailer:      mailer,
		bus:         bus,
		frontendURL: frontendURL,
		bcryptCost:  defaultBCryptCost,
		now:         time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (result model.RegisterResult, err error) {
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	username := util.CleanText(req.Username, 64)
	email := normalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return model.RegisterResult{}, apierror.BadRequest("missing required fields", "username, email and password are required")
	}
	if !isValidEmail(email) {
		return model.RegisterResult{}, errInvalidEmail
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.RegisterResult{}, err
	}
	if taken {
		return model.RegisterResult{}, apierror.Conflict("username already exists", username)
	}

	taken, err = s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return model.RegisterResult{}, err
	}
	if taken {
		return model.RegisterResult{}, apierror.Conflict("email already exists", email)
	}

	if !isStrongPassword(req.Password) {
		return model.RegisterResult{}, errWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.RegisterResult{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  string(hash),
		FirstName:     util.CleanText(req.FirstName, 100),
		LastName:      util.CleanText(req.LastName, 100),
		Role:          model.RoleUser,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.RegisterResult{}, apierror.Conflict("username or email already exists", "")
		}
		return model.RegisterResult{}, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		// without a delivered link the account could never be verified
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			slog.Error("rollback of unverifiable user failed", "user_id", user.ID, "error", delErr)
		}
		return model.RegisterResult{}, apierror.New("INTERNAL_ERROR", "failed to send verification email, please try again", "", http.StatusInternalServerError)
	}

	if err := s.categories.CreateDefaults(ctx, user.ID, now); err != nil {
		slog.Error("create default categories failed", "user_id", user.ID, "error", err)
	}

	s.bus.Publish(event.New(ctx, event.TypeUserRegistered, event.StatusSuccess, "user:"+user.ID,
		map[string]string{"username": user.Username, "email": user.Email}))

	return model.RegisterResult{
		Message:                   msgRegistered,
		UserID:                    user.ID,
		EmailVerificationRequired: true,
	}, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user model.User) error {
	token, err := s.ledger.Issue(ctx, user.ID, model.KindEmailVerification)
	if err != nil {
		return err
	}

	msg, err := mail.VerificationMessage(s.frontendURL, user.Email, user.Username, token.Token, s.ledger.TTL(model.KindEmailVerification))
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// Login accepts a username or, when the identifier contains '@', an email.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (result model.LoginResult, err error) {
	identifier := strings.TrimSpace(req.Identifier())
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			s.bus.Publish(event.Event{
				ID:        uuid.NewString(),
				Type:      event.TypeUserLoginFailed,
				Status:    event.StatusFailure,
				Resource:  "login:" + identifier,
				Error:     err.Error(),
				Timestamp: s.now().UTC().Format(time.RFC3339Nano),
				Actor:     event.ActorFromContext(ctx),
			})
		}
	}()

	if identifier == "" || req.Password == "" {
		return model.LoginResult{}, apierror.BadRequest("username/email and password are required", "")
	}

	var user model.User
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, normalizeEmail(identifier))
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResult{}, errInvalidCredentials
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	if !user.IsActive {
		return model.LoginResult{}, apierror.New("ACCOUNT_DEACTIVATED", "account is deactivated, please contact an administrator", "", http.StatusForbidden)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return model.LoginResult{}, errInvalidCredentials
	}

	if !user.EmailVerified {
		return model.LoginResult{}, apierror.New("EMAIL_NOT_VERIFIED", "please verify your email before logging in", "", http.StatusForbidden).
			WithData(map[string]any{"email_verification_required": true, "email": user.Email})
	}

	token, err := s.codec.Issue(user.ID, user.Role)
	if err != nil {
		return model.LoginResult{}, err
	}

	actorCtx := event.WithActor(ctx, withUser(event.ActorFromContext(ctx), user))
	s.bus.Publish(event.New(actorCtx, event.TypeUserLogin, event.StatusSuccess, "user:"+user.ID, nil))

	return model.LoginResult{Message: "Login successful", Token: token, User: user.AuthUser()}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (model.MessageResponse, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return model.MessageResponse{}, apierror.BadRequest("verification token is required", "")
	}

	token, err := s.ledger.Redeem(ctx, rawToken, model.KindEmailVerification)
	switch {
	case errors.Is(err, model.ErrTokenNotFound):
		return model.MessageResponse{}, apierror.New("INVALID_TOKEN", "invalid verification token", "", http.StatusBadRequest)
	case errors.Is(err, model.ErrTokenAlreadyUsed):
		owner, findErr := s.users.FindByID(ctx, token.UserID)
		if findErr == nil && owner.EmailVerified {
			return model.MessageResponse{Message: msgAlreadyVerified}, nil
		}
		return model.MessageResponse{}, apierror.New("TOKEN_ALREADY_USED", "verification token has already been used", "", http.StatusBadRequest)
	case errors.Is(err, model.ErrTokenExpired):
		return model.MessageResponse{}, apierror.New("TOKEN_EXPIRED", "verification token has expired, please request a new one", "", http.StatusBadRequest)
	case err != nil:
		return model.MessageResponse{}, err
	}

	if err := s.users.MarkEmailVerified(ctx, token.UserID); err != nil {
		return model.MessageResponse{}, err
	}

	s.bus.Publish(event.New(ctx, event.TypeUserEmailVerified, event.StatusSuccess, "user:"+token.UserID, nil))
	return model.MessageResponse{Message: msgEmailVerified}, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, rawEmail string) (model.MessageResponse, error) {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return model.MessageResponse{}, apierror.BadRequest("email is required", "")
	}
	if !isValidEmail(email) {
		return model.MessageResponse{}, errInvalidEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.MessageResponse{}, apierror.NotFound("user not found", "")
	}
	if err != nil {
		return model.MessageResponse{}, err
	}
	if user.EmailVerified {
		return model.MessageResponse{}, apierror.BadRequest("email already verified", "")
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return model.MessageResponse{}, apierror.New("INTERNAL_ERROR", "failed to send verification email", "", http.StatusInternalServerError)
	}
	return model.MessageResponse{Message: msgVerificationResent}, nil
}

// ForgotPassword answers an unknown address exactly like a successful send.
func (s *AuthService) ForgotPassword(ctx context.Context, rawEmail string) (model.MessageResponse, error) {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return model.MessageResponse{}, apierror.BadRequest("email is required", "")
	}
	if !isValidEmail(email) {
		return model.MessageResponse{}, errInvalidEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.MessageResponse{Message: msgResetLinkSent}, nil
	}
	if err != nil {
		return model.MessageResponse{}, err
	}
	if !user.EmailVerified {
		return model.MessageResponse{}, apierror.BadRequest("please verify your email first", "")
	}

	token, err := s.ledger.Issue(ctx, user.ID, model.KindPasswordReset)
	if err != nil {
		return model.MessageResponse{}, err
	}

	msg, err := mail.PasswordResetMessage(s.frontendURL, user.Email, user.Username, token.Token, s.ledger.TTL(model.KindPasswordReset))
	if err != nil {
		return model.MessageResponse{}, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return model.MessageResponse{}, apierror.New("INTERNAL_ERROR", "failed to send password reset email", "", http.StatusInternalServerError)
	}

	s.bus.Publish(event.New(ctx, event.TypePasswordResetRequest, event.StatusSuccess, "user:"+user.ID, nil))
	return model.MessageResponse{Message: msgResetLinkSent}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (model.MessageResponse, error) {
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return model.MessageResponse{}, apierror.BadRequest("token and password are required", "")
	}
	// checked before redemption so a weak password does not burn the token
	if !isStrongPassword(req.Password) {
		return model.MessageResponse{}, errWeakPassword
	}

	token, err := s.ledger.Redeem(ctx, strings.TrimSpace(req.Token), model.KindPasswordReset)
	if err != nil {
		if isLedgerError(err) {
			return model.MessageResponse{}, errResetTokenInvalid
		}
		return model.MessageResponse{}, err
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.MessageResponse{}, errResetTokenInvalid
	}
	if err != nil {
		return model.MessageResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.MessageResponse{}, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return model.MessageResponse{}, err
	}

	s.notifyPasswordChanged(ctx, user)
	s.bus.Publish(event.New(ctx, event.TypePasswordReset, event.StatusSuccess, "user:"+user.ID, nil))
	return model.MessageResponse{Message: msgPasswordReset}, nil
}

// notifyPasswordChanged is best effort; failures are logged only.
func (s *AuthService) notifyPasswordChanged(ctx context.Context, user model.User) {
	msg, err := mail.PasswordChangedMessage(user.Email, user.Username, s.now())
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Warn("password change notification not sent", "user_id", user.ID, "error", err)
	}
}

// Authenticate verifies an access token and loads its subject. It backs the
// access gate middleware.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (model.AuthClaims, error) {
	claims, err := s.codec.Verify(rawToken)
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		return model.AuthClaims{}, apierror.Unauthorized("TOKEN_EXPIRED", "token has expired")
	case err != nil:
		return model.AuthClaims{}, apierror.Unauthorized("INVALID_TOKEN", "invalid token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthClaims{}, apierror.Unauthorized("UNAUTHORIZED", "user not found")
	}
	if err != nil {
		return model.AuthClaims{}, err
	}
	if !user.IsActive {
		return model.AuthClaims{}, apierror.Unauthorized("ACCOUNT_DEACTIVATED", "account is deactivated")
	}

	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user not found", "")
	}
	return user, err
}

func isLedgerError(err error) bool {
	return errors.Is(err, model.ErrTokenNotFound) ||
		errors.Is(err, model.ErrTokenAlreadyUsed) ||
		errors.Is(err, model.ErrTokenExpired)
}

func withUser(actor event.Actor, user model.User) event.Actor {
	actor.UserID = user.ID
	actor.Role = user.Role
	return actor
}
