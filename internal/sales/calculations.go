package sales

import (
	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// LineTotals holds the computed amounts of one billable line.
type LineTotals struct {
	Amount decimal.Decimal
	Tax    decimal.Decimal
}

// InvoiceTotals is the outcome of pricing a sales order.
type InvoiceTotals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// CalculateLineTotals prices one line: amount = qty * unit price rounded to
// cents, tax per the joined tax method. Lines without a tax get zero tax.
func CalculateLineTotals(line BillableLine) LineTotals {
	amount := shared.RoundMoney(line.Quantity.Mul(line.UnitPrice))
	tax := decimal.Zero
	if line.TaxMethod != "" {
		tax = taxes.Amount(line.TaxMethod, line.TaxRate, amount)
	}
	return LineTotals{Amount: amount, Tax: tax}
}

// CalculateInvoiceTotals sums every line. Total always equals
// Subtotal + TaxTotal.
func CalculateInvoiceTotals(lines []BillableLine) InvoiceTotals {
	out := InvoiceTotals{
		Subtotal: decimal.Zero,
		TaxTotal: decimal.Zero,
	}
	for _, line := range lines {
		lt := CalculateLineTotals(line)
		out.Subtotal = out.Subtotal.Add(lt.Amount)
		out.TaxTotal = out.TaxTotal.Add(lt.Tax)
	}
	out.Total = out.Subtotal.Add(out.TaxTotal)
	return out
}
