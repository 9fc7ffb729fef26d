package taxes

import (
	"fmt"
	"strings"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

func normalize(in CreateTaxInput) (CreateTaxInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: tax name is required", shared.ErrValidation)
	}
	if in.Method != MethodPercentage && in.Method != MethodFixed {
		return in, fmt.Errorf("%w: tax method must be percentage or fixed", shared.ErrValidation)
	}
	if in.Rate.IsNegative() {
		return in, fmt.Errorf("%w: tax rate must not be negative", shared.ErrValidation)
	}
	switch in.AppliesOn {
	case "":
		in.AppliesOn = AppliesOnBoth
	case AppliesOnSales, AppliesOnPurchase, AppliesOnBoth:
	default:
		return in, fmt.Errorf("%w: applies_on must be sales, purchase or both", shared.ErrValidation)
	}
	return in, nil
}
