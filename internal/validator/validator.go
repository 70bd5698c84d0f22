// Package validator wraps go-playground/validator with the domain's custom
// rules and a field-level error type handlers can serialize.
package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all failures from one Validate call.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validator validates request structs.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	// choice_key accepts the four answer keys.
	_ = validate.RegisterValidation("choice_key", func(fl validator.FieldLevel) bool {
		return models.IsValidChoice(fl.Field().String())
	})

	return &Validator{validate: validate}
}

// Validate checks s against its struct tags. It returns nil or a
// ValidationErrors value.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) ValidationErrors {
	var out ValidationErrors

	var fieldErrors validator.ValidationErrors
	if ok := asFieldErrors(err, &fieldErrors); !ok {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "unknown"}}
	}

	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func asFieldErrors(err error, target *validator.ValidationErrors) bool {
	fe, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fe
	}
	return ok
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "choice_key":
		return "must be one of the answer keys a, b, c, d"
	default:
		return fmt.Sprintf("failed validation rule '%s'", fe.Tag())
	}
}
