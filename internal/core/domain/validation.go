// Package domain validation using go-playground/validator/v10 with
// proxy-specific custom validators.
package domain

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with proxy-specific custom
// validators.
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a validation instance with the custom validators
// registered.
func NewValidator() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("lock_policy", validateLockPolicy)

	return &Validator{validator: validate}
}

// Validate validates a struct using its `validate` tags.
func (v *Validator) Validate(s interface{}) error {
	return v.validator.Struct(s)
}

// ValidateVar validates a single variable using the specified tag.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validator.Var(field, tag)
}

// lock_policy validates a file lock policy name.
func validateLockPolicy(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // empty values handled by 'required' tag
	}
	_, err := ParseLockPolicy(value)
	return err == nil
}
