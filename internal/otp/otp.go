// Package otp generates one-time codes and checks submitted codes against the
// stored code and its expiry.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Lifetimes of the two OTP flows.
const (
	VerifyTTL = 24 * time.Hour
	ResetTTL  = 15 * time.Minute
)

const (
	minCode = 100000
	maxCode = 999999
)

var (
	ErrInvalid = errors.New("invalid otp")
	ErrExpired = errors.New("otp expired")
)

// Generate returns a six digit code drawn uniformly from [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+minCode), nil
}

// ExpiresAt returns the expiry of a code issued at now, in epoch milliseconds.
func ExpiresAt(now time.Time, ttl time.Duration) int64 {
	return now.Add(ttl).UnixMilli()
}

// Check validates submitted against the stored code. A cleared code never
// matches, so a verified or reset code cannot be replayed.
func Check(stored, submitted string, expiresAt int64, now time.Time) error {
	if stored == "" || stored != submitted {
		return ErrInvalid
	}
	if now.UnixMilli() > expiresAt {
		return ErrExpired
	}
	return nil
}
