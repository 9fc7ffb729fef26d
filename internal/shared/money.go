package shared

import "github.com/shopspring/decimal"

const (
	// MoneyScale is the number of decimal places kept for amounts.
	MoneyScale = 2
	// QtyScale is the number of decimal places kept for quantities.
	QtyScale = 3
)

// Largest values the NUMERIC(14,2) and NUMERIC(14,3) columns hold.
var (
	MaxMoney = decimal.RequireFromString("999999999999.99")
	MaxQty   = decimal.RequireFromString("99999999999.999")
)

// RoundMoney rounds half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// FormatQty renders a quantity with exactly three decimals.
func FormatQty(d decimal.Decimal) string {
	return d.StringFixed(QtyScale)
}

// MoneyFits reports whether d, once rounded, fits a money column.
func MoneyFits(d decimal.Decimal) bool {
	return RoundMoney(d).Abs().LessThanOrEqual(MaxMoney)
}

// QtyFits reports whether d, once rounded, fits a quantity column.
func QtyFits(d decimal.Decimal) bool {
	return d.Round(QtyScale).Abs().LessThanOrEqual(MaxQty)
}
