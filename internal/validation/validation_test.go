package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"ada@example.com", false},
		{"a.b+c@sub.example.io", false},
		{"ada@example", true},
		{"ada example@x.com", true},
		{"@example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.EqualError(t, err, "Invalid email format")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePassword("secret"))
	assert.EqualError(t, ValidatePassword("12345"), "Password must be at least 6 characters long")
}

func TestBlank(t *testing.T) {
	t.Parallel()
	assert.False(t, Blank("a", "b"))
	assert.True(t, Blank("a", "   "))
	assert.True(t, Blank(""))
	assert.False(t, Blank())
}

type postFields struct {
	Title    string `validate:"required" label:"Title"`
	Content  string `validate:"required" label:"Content"`
	Category string `validate:"required,uuid" label:"Category"`
}

func TestStructMessages(t *testing.T) {
	t.Parallel()

	err := Struct(postFields{Category: "nope"})
	assert.Equal(t, []string{"Title is required", "Content is required", "Category must be a valid id"}, Messages(err))
	assert.Equal(t, "Title is required, Content is required, Category must be a valid id", Message(err))

	assert.NoError(t, Struct(postFields{
		Title:    "t",
		Content:  "c",
		Category: "3f0c8a52-5f4c-4a59-9b39-2a1f7f3c9d10",
	}))
	assert.Nil(t, Messages(nil))
}
