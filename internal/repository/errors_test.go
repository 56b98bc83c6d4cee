package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	assert.NoError(t, validateID("3f0c8a52-5f4c-4a59-9b39-2a1f7f3c9d10"))
	assert.ErrorIs(t, validateID("abc"), ErrInvalidID)
	assert.ErrorIs(t, validateID(""), ErrInvalidID)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
	}{
		{
			name: "postgres unique violation",
			err: &pgconn.PgError{
				Code:   "23505",
				Detail: "Key (email)=(a@b.c) already exists.",
			},
			wantField: "email",
		},
		{
			name:      "sqlite unique violation",
			err:       errors.New("UNIQUE constraint failed: categories.name"),
			wantField: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dup *DuplicateKeyError
			got := translateError(tt.err)
			if assert.ErrorAs(t, got, &dup) {
				assert.Equal(t, tt.wantField, dup.Field)
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}

	t.Run("passes other errors through", func(t *testing.T) {
		other := errors.New("connection reset")
		assert.Same(t, other, translateError(other))
		assert.NoError(t, translateError(nil))
	})

	t.Run("other postgres codes are untouched", func(t *testing.T) {
		fk := &pgconn.PgError{Code: "23503"}
		var dup *DuplicateKeyError
		assert.False(t, errors.As(translateError(fk), &dup))
	})
}
