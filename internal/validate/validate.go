// Package validate wires go-playground/validator behind echo's Validator
// interface. Request DTOs declare their accepted shape once via struct
// tags; services only ever see inputs that already passed.
package validate

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/neibo-app/neibo/internal/apperr"
)

// FieldError names the offending field in validation responses.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field: lowerFirst(fe.Field()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return apperr.ValidationDetails("Validation failed", details)
}

// Var validates a single value, used for path and query parameters.
func (cv *Validator) Var(name, value, tag string) error {
	if err := cv.v.Var(value, tag); err != nil {
		return apperr.ValidationDetails("Validation failed", []FieldError{{Field: name, Rule: tag}})
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return strings.TrimSpace(string(r))
}
