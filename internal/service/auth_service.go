package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"techsparks/internal/featureflags"
	"techsparks/internal/mailer"
	"techsparks/internal/models"
	"techsparks/internal/observability"
	"techsparks/internal/otp"
	"techsparks/internal/repository"
	"techsparks/internal/token"
	"techsparks/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor for stored passwords.
const PasswordHashCost = 10

type AuthService struct {
	users    repository.UserRepository
	tokens   *token.Issuer
	mail     *mailer.Mailer
	flags    *featureflags.Manager
	now      func() time.Time
	hashCost int
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type ResetPasswordInput struct {
	Email       string
	OTP         string
	NewPassword string
}

func NewAuthService(
	users repository.UserRepository,
	tokens *token.Issuer,
	mail *mailer.Mailer,
	flags *featureflags.Manager,
) *AuthService {
	if mail == nil {
		mail = mailer.New(mailer.Disabled())
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		mail:     mail,
		flags:    flags,
		now:      time.Now,
		hashCost: PasswordHashCost,
	}
}

// Register creates the account and returns it with a fresh session token.
// The welcome email is best-effort.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, raw string, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", models.NewValidationError("Missing details!")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, "", models.NewValidationError(err.Error())
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", models.NewConflictError("User already exists!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	user = &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) && dup.Field == "email" {
			return nil, "", models.NewConflictError("User already exists!")
		}
		return nil, "", err
	}

	raw, err = s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	if mailErr := s.mail.SendWelcome(ctx, user.Email); mailErr != nil {
		observability.Logger.WarnContext(ctx, "welcome email not delivered",
			slog.String("user_id", user.ID),
			slog.String("error", mailErr.Error()),
		)
	}

	return user, raw, nil
}

// Login checks the credentials and returns the user with a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (user *models.User, raw string, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Login")
	defer func() { observability.EndSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", models.NewValidationError("Email and Password are required!")
	}

	legacy := s.flags.Enabled(featureflags.LegacyLoginErrors, email)

	user, err = s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		observability.AuthFailures.WithLabelValues("unknown_email").Inc()
		if legacy {
			return nil, "", models.NewUnauthorizedError("Invalid email!")
		}
		return nil, "", models.NewUnauthorizedError("Invalid credentials!")
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		observability.AuthFailures.WithLabelValues("wrong_password").Inc()
		if legacy {
			return nil, "", models.NewUnauthorizedError("Invalid password!")
		}
		return nil, "", models.NewUnauthorizedError("Invalid credentials!")
	}

	raw, err = s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, raw, nil
}

// SendVerifyOTP issues a 24h verification code and emails it. A delivery
// failure is returned to the caller.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, "User not found!")
	}
	if user.IsAccountVerified {
		return models.NewConflictError("Account already verified!")
	}

	code, err := otp.Generate()
	if err != nil {
		return models.NewInternalError(err)
	}
	user.VerifyOTP = code
	user.VerifyOTPExpireAt = otp.ExpiresAt(s.now(), otp.VerifyTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	observability.OTPIssued.WithLabelValues("verify").Inc()

	if err := s.mail.SendVerifyOTP(ctx, user.Email, code); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// VerifyEmail consumes the verification code and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, userID, code string) error {
	if strings.TrimSpace(code) == "" {
		return models.NewValidationError("Missing OTP!")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, "User not found!")
	}
	if err := checkOTP(user.VerifyOTP, code, user.VerifyOTPExpireAt, s.now()); err != nil {
		return err
	}

	user.IsAccountVerified = true
	user.VerifyOTP = ""
	user.VerifyOTPExpireAt = 0
	return s.users.Update(ctx, user)
}

// IsAuthenticated returns the account behind a verified session.
func (s *AuthService) IsAuthenticated(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found!")
	}
	return user, nil
}

// UserData returns the name/verified projection of the account.
func (s *AuthService) UserData(ctx context.Context, userID string) (*models.UserData, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found!")
	}
	return &models.UserData{Name: user.Name, IsAccountVerified: user.IsAccountVerified}, nil
}

// SendResetOTP issues a 15 minute reset code and emails it.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.NewValidationError("Email is required!")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User not found!")
	}

	code, err := otp.Generate()
	if err != nil {
		return models.NewInternalError(err)
	}
	user.ResetOTP = code
	user.ResetOTPExpireAt = otp.ExpiresAt(s.now(), otp.ResetTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	observability.OTPIssued.WithLabelValues("reset").Inc()

	if err := s.mail.SendResetOTP(ctx, user.Email, code); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResetPassword consumes the reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || strings.TrimSpace(in.OTP) == "" || in.NewPassword == "" {
		return models.NewValidationError("Email, OTP, and new password are required!")
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return notFound(err, "User not found!")
	}
	if err := checkOTP(user.ResetOTP, in.OTP, user.ResetOTPExpireAt, s.now()); err != nil {
		return err
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	user.ResetOTP = ""
	user.ResetOTPExpireAt = 0
	return s.users.Update(ctx, user)
}

func checkOTP(stored, submitted string, expiresAt int64, now time.Time) error {
	switch err := otp.Check(stored, strings.TrimSpace(submitted), expiresAt, now); {
	case err == nil:
		return nil
	case errors.Is(err, otp.ErrExpired):
		return models.NewValidationError("OTP expired!")
	default:
		return models.NewValidationError("Invalid OTP!")
	}
}
