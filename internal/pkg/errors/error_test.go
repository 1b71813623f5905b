package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := NewValidation("email", "please provide a valid email")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "please provide a valid email", ve.Fields["email"])
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	ve := &ValidationError{}
	ve.Add("name", "name is required")
	ve.Add("email", "please provide a valid email")

	// Map iteration order must not leak into the message.
	assert.Equal(t, "validation failed: email: please provide a valid email; name: name is required", ve.Error())
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "loading lead")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "loading lead: resource not found", err.Error())
	assert.Nil(t, Wrap(nil, "whatever"))
}

func TestNoteNotFoundIsDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoteNotFound, ErrNotFound))
}
