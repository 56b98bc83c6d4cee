// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches nothing. It aliases the GORM
// sentinel so both storage backends report misses the same way.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInvalidID is returned for identifiers that are not well-formed UUIDs.
var ErrInvalidID = errors.New("invalid identifier format")

// DuplicateKeyError reports a unique constraint violation on Field.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

var (
	pgKeyDetail   = regexp.MustCompile(`Key \(([^)]+)\)=`)
	mongoDupField = regexp.MustCompile(`dup key: \{ ?([A-Za-z0-9_]+):`)
)

// translateError converts driver-level unique violations into DuplicateKeyError.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := pgErr.ColumnName
		if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}

	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		col := strings.TrimPrefix(msg[idx:], "UNIQUE constraint failed: ")
		if dot := strings.LastIndex(col, "."); dot >= 0 {
			col = col[dot+1:]
		}
		return &DuplicateKeyError{Field: strings.TrimSpace(col), Err: err}
	}

	if mongo.IsDuplicateKeyError(err) {
		field := "key"
		if m := mongoDupField.FindStringSubmatch(msg); len(m) == 2 {
			field = m[1]
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}

	return err
}
