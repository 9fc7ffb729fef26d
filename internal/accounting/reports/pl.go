package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
)

// ProfitAndLossAccount represents an income or expense account summary.
type ProfitAndLossAccount struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string                 `json:"label"`
	Accounts []ProfitAndLossAccount `json:"accounts"`
	Total    decimal.Decimal        `json:"total"`
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Income  ProfitAndLossSection `json:"income"`
	Expense ProfitAndLossSection `json:"expense"`
	Net     decimal.Decimal      `json:"net"`
}

// BuildProfitAndLoss aggregates accounts into income and expense sections.
// Accounts of any other type are ignored, so GST collected never counts as
// income.
func BuildProfitAndLoss(accounts []AccountBalance) ProfitAndLoss {
	income := ProfitAndLossSection{Label: "Income", Accounts: []ProfitAndLossAccount{}, Total: decimal.Zero}
	expense := ProfitAndLossSection{Label: "Expense", Accounts: []ProfitAndLossAccount{}, Total: decimal.Zero}

	for _, acc := range accounts {
		row := ProfitAndLossAccount{AccountID: acc.AccountID, Name: acc.Name}
		switch acc.Type {
		case accounting.AccountTypeIncome:
			row.Amount = acc.CreditBalance()
			income.Accounts = append(income.Accounts, row)
			income.Total = income.Total.Add(row.Amount)
		case accounting.AccountTypeExpense:
			row.Amount = acc.DebitBalance()
			expense.Accounts = append(expense.Accounts, row)
			expense.Total = expense.Total.Add(row.Amount)
		}
	}

	sort.Slice(income.Accounts, func(i, j int) bool { return income.Accounts[i].Name < income.Accounts[j].Name })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Name < expense.Accounts[j].Name })

	return ProfitAndLoss{
		Income:  income,
		Expense: expense,
		Net:     income.Total.Sub(expense.Total),
	}
}
