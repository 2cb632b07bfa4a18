package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neibo-app/neibo/internal/apperr"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=3"`
}

func TestValidateOK(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(&sample{Email: "a@b.c", Name: "alice"}))
}

func TestValidateFieldDetails(t *testing.T) {
	v := New()
	err := v.Validate(&sample{Email: "nope", Name: "al"})
	require.Error(t, err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "Validation failed", appErr.Message)

	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 2)
	require.Equal(t, "email", details[0].Field)
	require.Equal(t, "email", details[0].Rule)
	require.Equal(t, "name", details[1].Field)
	require.Equal(t, "min", details[1].Rule)
	require.Equal(t, "3", details[1].Param)
}

func TestVar(t *testing.T) {
	v := New()
	require.NoError(t, v.Var("id", "7f6cbe6d-31f2-4f6b-9c31-16a3e1a5b001", "uuid"))

	err := v.Var("id", "not-a-uuid", "uuid")
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
}
