// Package token issues and verifies the signed session tokens carried in the
// "token" cookie.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the lifetime of a session token and of the cookie that carries it.
const TTL = 7 * 24 * time.Hour

var (
	// ErrInvalid covers malformed tokens, bad signatures and foreign algorithms.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for tokens past their exp claim.
	ErrExpired = errors.New("token expired")
	// ErrMissingIdentity is returned when a valid token has no user id.
	ErrMissingIdentity = errors.New("token has no user id")
)

// Claims is the payload of a session token. ID mirrors Subject so clients that
// only read the custom claim keep working.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer for secret with the default TTL.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: TTL, now: time.Now}
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the user id it carries.
func (i *Issuer) Parse(raw string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return "", ErrInvalid
	}

	if claims.UserID == "" {
		return "", ErrMissingIdentity
	}
	return claims.UserID, nil
}
