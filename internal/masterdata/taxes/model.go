package taxes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// Method selects how a tax is derived from a line amount.
type Method string

const (
	MethodPercentage Method = "percentage"
	MethodFixed      Method = "fixed"
)

// AppliesOn scopes a tax to sales, purchases or both.
type AppliesOn string

const (
	AppliesOnSales    AppliesOn = "sales"
	AppliesOnPurchase AppliesOn = "purchase"
	AppliesOnBoth     AppliesOn = "both"
)

// Tax represents a tax configuration
type Tax struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Method    Method          `json:"method"`
	Rate      decimal.Decimal `json:"rate"`
	AppliesOn AppliesOn       `json:"applies_on"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateTaxInput is the payload accepted when creating a tax.
type CreateTaxInput struct {
	Name      string          `json:"name" validate:"required"`
	Method    Method          `json:"method" validate:"required,oneof=percentage fixed"`
	Rate      decimal.Decimal `json:"rate" validate:"gte=0"`
	AppliesOn AppliesOn       `json:"applies_on" validate:"omitempty,oneof=sales purchase both"`
}

// Amount computes the tax for one line. Percentage taxes are rounded to
// cents per line; fixed taxes add the flat rate once per line. A zero rate
// or unknown method yields zero.
func Amount(method Method, rate, line decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	switch method {
	case MethodPercentage:
		return shared.RoundMoney(line.Mul(rate).Div(decimal.NewFromInt(100)))
	case MethodFixed:
		return shared.RoundMoney(rate)
	default:
		return decimal.Zero
	}
}
