package contacts

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

var fieldValidator = validator.New()

func validate(form ContactForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: contact name is required", shared.ErrValidation)
	}
	switch form.Type {
	case TypeCustomer, TypeVendor, TypeBoth:
	default:
		return fmt.Errorf("%w: contact type must be customer, vendor or both", shared.ErrValidation)
	}
	if err := fieldValidator.Var(form.Email, "omitempty,email"); err != nil {
		return fmt.Errorf("%w: invalid email", shared.ErrValidation)
	}
	if err := fieldValidator.Var(form.ProfileImage, "omitempty,url"); err != nil {
		return fmt.Errorf("%w: profile_image must be a url", shared.ErrValidation)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
