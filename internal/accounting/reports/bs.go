package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    decimal.Decimal       `json:"total"`
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"total_liabilities_and_equity"`
}

func newSection(label string) BalanceSheetSection {
	return BalanceSheetSection{Label: label, Accounts: []BalanceSheetAccount{}, Total: decimal.Zero}
}

func (s *BalanceSheetSection) add(acc AccountBalance, balance decimal.Decimal) {
	s.Accounts = append(s.Accounts, BalanceSheetAccount{AccountID: acc.AccountID, Name: acc.Name, Balance: balance})
	s.Total = s.Total.Add(balance)
}

// BuildBalanceSheet aggregates balances into assets, liabilities, and equity
// sections. Assets carry debit balances, the other two credit balances.
// Accounts without activity keep a zero row.
func BuildBalanceSheet(accounts []AccountBalance) BalanceSheet {
	assets := newSection("Assets")
	liabilities := newSection("Liabilities")
	equity := newSection("Equity")

	for _, acc := range accounts {
		switch acc.Type {
		case accounting.AccountTypeAsset:
			assets.add(acc, acc.DebitBalance())
		case accounting.AccountTypeLiability:
			liabilities.add(acc, acc.CreditBalance())
		case accounting.AccountTypeEquity:
			equity.add(acc, acc.CreditBalance())
		}
	}

	for _, sec := range []*BalanceSheetSection{&assets, &liabilities, &equity} {
		rows := sec.Accounts
		sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	}

	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: liabilities.Total.Add(equity.Total),
	}
}
