package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{"simple validation error", "slug", "invalid format", "validation error on field 'slug': invalid format"},
		{"required field error", "query", "required", "validation error on field 'query': required"},
		{"empty field name", "", "test message", "validation error on field '': test message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := error(&ValidationError{Field: "slug", Message: "bad", Err: ErrInvalidSlug})

	assert.True(t, errors.Is(err, ErrInvalidSlug))
	assert.False(t, errors.Is(err, ErrInvalidReactionType))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "slug", ve.Field)
}
