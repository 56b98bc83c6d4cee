package middleware

import (
	"context"
	"errors"
	"time"

	"techsparks/internal/models"
	"techsparks/internal/observability"
	"techsparks/internal/repository"
	"techsparks/internal/token"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the session cookie set on register and login.
const CookieName = "token"

const (
	localUser   = "user"
	localUserID = "userID"
)

const (
	msgNotAuthorized = "Not authorized, please login again!"
	msgBadToken      = "Invalid or expired token, please login again!"
	msgUserNotFound  = "User not found!"
)

// TokenParser is the part of token.Issuer the middleware needs.
type TokenParser interface {
	Parse(raw string) (string, error)
}

// UserLoader loads the account behind a verified token.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

func identify(c *fiber.Ctx, tokens TokenParser) (string, error) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		observability.AuthFailures.WithLabelValues("missing_cookie").Inc()
		return "", models.NewUnauthorizedError(msgNotAuthorized)
	}

	userID, err := tokens.Parse(raw)
	switch {
	case errors.Is(err, token.ErrMissingIdentity):
		observability.AuthFailures.WithLabelValues("missing_identity").Inc()
		return "", models.NewUnauthorizedError(msgNotAuthorized)
	case err != nil:
		observability.AuthFailures.WithLabelValues("invalid_token").Inc()
		return "", models.NewUnauthorizedError(msgBadToken)
	}

	c.Locals(localUserID, userID)
	c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, userID))
	return userID, nil
}

// IdentityRequired verifies the session cookie and stores only the user id.
// Handlers read it with CurrentUserID.
func IdentityRequired(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := identify(c, tokens); err != nil {
			return err
		}
		return c.Next()
	}
}

// AuthRequired verifies the session cookie and loads the user. Handlers read
// it with CurrentUser.
func AuthRequired(tokens TokenParser, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := identify(c, tokens)
		if err != nil {
			return err
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			observability.AuthFailures.WithLabelValues("unknown_user").Inc()
			return models.NewUnauthorizedError(msgUserNotFound)
		}
		if err != nil {
			return models.NewInternalError(err)
		}

		user.Password = ""
		c.Locals(localUser, user)
		return c.Next()
	}
}

// CurrentUser returns the user loaded by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// CurrentUserID returns the id stored by either auth middleware, or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func sessionCookie(value string, expires time.Time, maxAge int, production bool) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
	if production {
		cookie.Secure = true
		cookie.SameSite = fiber.CookieSameSiteNoneMode
	}
	return cookie
}

// SetSessionCookie attaches raw as the session cookie for token.TTL.
func SetSessionCookie(c *fiber.Ctx, raw string, production bool) {
	c.Cookie(sessionCookie(raw, time.Now().Add(token.TTL), int(token.TTL.Seconds()), production))
}

// ClearSessionCookie expires the session cookie using the same attributes it was set with.
func ClearSessionCookie(c *fiber.Ctx, production bool) {
	c.Cookie(sessionCookie("", time.Unix(0, 0), -1, production))
}
