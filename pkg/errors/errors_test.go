package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInternalError("failed to load", fmt.Errorf("boom"))
	assert.Equal(t, "INTERNAL: failed to load: boom", err.Error())

	assert.Equal(t, "NOT_FOUND: location 3 not found", NewNotFoundError("location 3 not found").Error())
}

func TestTypeOf_Wrapped(t *testing.T) {
	base := NewConstraintError("duplicate location name", "locations_name_key", nil)
	wrapped := fmt.Errorf("create location: %w", base)

	assert.Equal(t, ErrorTypeConflict, TypeOf(wrapped))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x")))
	assert.True(t, IsValidation(NewValidationErrorf("field %q unknown", "foo")))
	assert.True(t, IsUnavailable(NewUnavailableError("down", nil)))
	assert.True(t, IsTimeout(NewTimeoutError("slow", nil)))
}
