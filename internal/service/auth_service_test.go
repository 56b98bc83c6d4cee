package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"techsparks/internal/featureflags"
	"techsparks/internal/mailer"
	"techsparks/internal/models"
	"techsparks/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

var sixDigits = regexp.MustCompile(`^\d{6}$`)

type authFixture struct {
	svc    *AuthService
	users  *memoryUsers
	sender *recordingSender
	tokens *token.Issuer
	clock  time.Time
}

func newAuthFixture(t *testing.T, flags string) *authFixture {
	t.Helper()
	users, repo := newMemoryUsers()
	sender := &recordingSender{}
	tokens := token.NewIssuer(testSecret)
	f := &authFixture{
		users:  users,
		sender: sender,
		tokens: tokens,
		clock:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(repo, tokens, mailer.New(sender), featureflags.NewManager(flags))
	f.svc.hashCost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *authFixture) register(t *testing.T) *models.User {
	t.Helper()
	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	ctx := context.Background()

	user, raw, err := f.svc.Register(ctx, RegisterInput{Name: " Ada ", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.NotEmpty(t, user.ID)

	id, err := f.tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	stored := f.users.get(user.ID)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
	assert.False(t, stored.IsAccountVerified)

	sent := f.sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to techSparks", sent[0].Subject)
	assert.Equal(t, "ada@example.com", sent[0].To)

	_, _, err = f.svc.Register(ctx, RegisterInput{Name: "Other", Email: "ada@example.com", Password: "another"})
	assertAppError(t, err, models.CodeConflict, "User already exists!")
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")

	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1"}, "Missing details!"},
		{"missing email", RegisterInput{Name: "A", Password: "secret1"}, "Missing details!"},
		{"missing password", RegisterInput{Name: "A", Email: "a@b.co"}, "Missing details!"},
		{"blank name", RegisterInput{Name: "  ", Email: "a@b.co", Password: "secret1"}, "Missing details!"},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}, "Invalid email format"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "12345"}, "Password must be at least 6 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Register(context.Background(), tt.in)
			assertValidationError(t, err, tt.want)
		})
	}
	assert.Empty(t, f.sender.messages())
}

func TestAuthService_Register_WelcomeFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	f.sender.err = errors.New("smtp down")

	user, raw, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "ada@example.com", f.users.get(user.ID).Email)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	registered := f.register(t)
	ctx := context.Background()

	user, raw, err := f.svc.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	id, err := f.tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)

	_, _, err = f.svc.Login(ctx, "", "secret1")
	assertValidationError(t, err, "Email and Password are required!")

	_, _, err = f.svc.Login(ctx, "nobody@example.com", "secret1")
	assertUnauthorizedError(t, err, "Invalid credentials!")

	_, _, err = f.svc.Login(ctx, "ada@example.com", "wrong-password")
	assertUnauthorizedError(t, err, "Invalid credentials!")
}

func TestAuthService_Login_LegacyMessages(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, featureflags.LegacyLoginErrors+"=on")
	f.register(t)
	ctx := context.Background()

	_, _, err := f.svc.Login(ctx, "nobody@example.com", "secret1")
	assertUnauthorizedError(t, err, "Invalid email!")

	_, _, err = f.svc.Login(ctx, "ada@example.com", "wrong-password")
	assertUnauthorizedError(t, err, "Invalid password!")
}

func TestAuthService_VerifyFlow(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendVerifyOTP(ctx, user.ID))
	stored := f.users.get(user.ID)
	assert.Regexp(t, sixDigits, stored.VerifyOTP)
	assert.Equal(t, f.clock.Add(24*time.Hour).UnixMilli(), stored.VerifyOTPExpireAt)

	sent := f.sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Account verification OTP!", sent[1].Subject)
	assert.Contains(t, sent[1].HTML, stored.VerifyOTP)

	err := f.svc.VerifyEmail(ctx, user.ID, "")
	assertValidationError(t, err, "Missing OTP!")

	wrong := "000000"
	if stored.VerifyOTP == wrong {
		wrong = "111111"
	}
	err = f.svc.VerifyEmail(ctx, user.ID, wrong)
	assertValidationError(t, err, "Invalid OTP!")

	require.NoError(t, f.svc.VerifyEmail(ctx, user.ID, stored.VerifyOTP))
	verified := f.users.get(user.ID)
	assert.True(t, verified.IsAccountVerified)
	assert.Equal(t, "", verified.VerifyOTP)
	assert.Equal(t, int64(0), verified.VerifyOTPExpireAt)

	// The consumed code cannot be replayed.
	err = f.svc.VerifyEmail(ctx, user.ID, stored.VerifyOTP)
	assertValidationError(t, err, "Invalid OTP!")

	err = f.svc.SendVerifyOTP(ctx, user.ID)
	assertAppError(t, err, models.CodeConflict, "Account already verified!")
}

func TestAuthService_VerifyEmail_Expired(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendVerifyOTP(ctx, user.ID))
	code := f.users.get(user.ID).VerifyOTP

	f.clock = f.clock.Add(24*time.Hour + time.Millisecond)
	err := f.svc.VerifyEmail(ctx, user.ID, code)
	assertValidationError(t, err, "OTP expired!")
	assert.False(t, f.users.get(user.ID).IsAccountVerified)
}

func TestAuthService_SendVerifyOTP_MailFailureIsFatal(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	f.sender.err = errors.New("smtp down")

	err := f.svc.SendVerifyOTP(context.Background(), user.ID)
	assertAppError(t, err, models.CodeInternal, "")
}

func TestAuthService_UnknownUser(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	ctx := context.Background()
	ghost := "5d1c8a4e-0000-4000-8000-000000000000"

	assertNotFoundError(t, f.svc.SendVerifyOTP(ctx, ghost), "User not found!")
	assertNotFoundError(t, f.svc.VerifyEmail(ctx, ghost, "123456"), "User not found!")
	_, err := f.svc.IsAuthenticated(ctx, ghost)
	assertNotFoundError(t, err, "User not found!")
	_, err = f.svc.UserData(ctx, ghost)
	assertNotFoundError(t, err, "User not found!")
	assertNotFoundError(t, f.svc.SendResetOTP(ctx, "ghost@example.com"), "User not found!")
}

func TestAuthService_IsAuthenticatedAndUserData(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	ctx := context.Background()

	got, err := f.svc.IsAuthenticated(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	data, err := f.svc.UserData(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.UserData{Name: "Ada", IsAccountVerified: false}, data)
}

func TestAuthService_ResetFlow(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	ctx := context.Background()

	assertValidationError(t, f.svc.SendResetOTP(ctx, " "), "Email is required!")

	require.NoError(t, f.svc.SendResetOTP(ctx, "ada@example.com"))
	stored := f.users.get(user.ID)
	assert.Regexp(t, sixDigits, stored.ResetOTP)
	assert.Equal(t, f.clock.Add(15*time.Minute).UnixMilli(), stored.ResetOTPExpireAt)
	sent := f.sender.messages()
	assert.Equal(t, "Password Reset OTP!", sent[len(sent)-1].Subject)

	err := f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "ada@example.com", OTP: stored.ResetOTP})
	assertValidationError(t, err, "Email, OTP, and new password are required!")

	err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "ada@example.com", OTP: stored.ResetOTP, NewPassword: "123"})
	assertValidationError(t, err, "Password must be at least 6 characters long")

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{
		Email: "ada@example.com", OTP: stored.ResetOTP, NewPassword: "brand-new",
	}))
	reset := f.users.get(user.ID)
	assert.Equal(t, "", reset.ResetOTP)
	assert.Equal(t, int64(0), reset.ResetOTPExpireAt)

	_, _, err = f.svc.Login(ctx, "ada@example.com", "secret1")
	assertUnauthorizedError(t, err, "Invalid credentials!")
	_, _, err = f.svc.Login(ctx, "ada@example.com", "brand-new")
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, ResetPasswordInput{
		Email: "ada@example.com", OTP: stored.ResetOTP, NewPassword: "again-new",
	})
	assertValidationError(t, err, "Invalid OTP!")
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, "")
	user := f.register(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendResetOTP(ctx, "ada@example.com"))
	code := f.users.get(user.ID).ResetOTP

	f.clock = f.clock.Add(16 * time.Minute)
	err := f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "ada@example.com", OTP: code, NewPassword: "brand-new"})
	assertValidationError(t, err, "OTP expired!")
}
