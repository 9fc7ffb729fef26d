package products

import (
	"fmt"
	"strings"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

func normalize(form ProductForm) (ProductForm, error) {
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		return form, fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if form.Type != TypeGoods && form.Type != TypeService {
		return form, fmt.Errorf("%w: product type must be goods or service", shared.ErrValidation)
	}
	if form.SalesPrice.IsNegative() || form.PurchasePrice.IsNegative() {
		return form, fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	form.HSNCode = blankToNil(form.HSNCode)
	form.Category = blankToNil(form.Category)
	return form, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
