package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
)

// AccountBalance models a chart account with its summed ledger activity.
type AccountBalance struct {
	AccountID int64                  `json:"account_id"`
	Name      string                 `json:"name"`
	Type      accounting.AccountType `json:"type"`
	Debit     decimal.Decimal        `json:"debit"`
	Credit    decimal.Decimal        `json:"credit"`
}

// DebitBalance is debit minus credit, the natural sign of assets and expenses.
func (a AccountBalance) DebitBalance() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// CreditBalance is credit minus debit, the natural sign of income,
// liabilities and equity.
func (a AccountBalance) CreditBalance() decimal.Decimal {
	return a.Credit.Sub(a.Debit)
}

// Period bounds a report by ledger entry creation time. Both ends are
// inclusive; a nil end imposes no constraint.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) token() string {
	return boundToken(p.From) + ":" + boundToken(p.To)
}

func boundToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// StockLevel is the on-hand quantity of one product.
type StockLevel struct {
	ProductID int64           `json:"product_id"`
	Product   string          `json:"product"`
	Qty       decimal.Decimal `json:"qty"`
}
