// Package validate runs struct-tag validation and reports the first failure
// as an apperror.ValidationFailed, so callers on either side of the wire see
// the same error shape.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/hangang/internal/apperror"
)

// Validator wraps go-playground/validator. It is safe for concurrent use and
// caches struct metadata, so build one and share it.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and converts the first failing field into a
// ValidationFailed error. Non-struct misuse is reported as a plain error.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), message(fe))
}

// Var validates a single value against a tag, e.g. v.Var("text", text, "required,max=2000").
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.ValidationFailed(field, messageFor(field, fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("validate: %w", err)
}

func message(fe validator.FieldError) string {
	return messageFor(fe.Field(), fe.Tag(), fe.Param())
}

func messageFor(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "datetime":
		return fmt.Sprintf("%s must be a date in the form %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
