package accounting

import (
	"context"
	"fmt"
)

// Role identifies an account the posting rules depend on.
type Role int

const (
	RoleCash Role = iota + 1
	RoleBank
	RoleAccountsReceivable
	RoleInventory
	RoleAccountsPayable
	RoleGSTOutput
	RoleGSTInput
	RoleSalesRevenue
	RolePurchasesExpense
	RoleOwnersEquity
)

type seed struct {
	role Role
	name string
	typ  AccountType
}

// order matters only for log output and tests.
var seedAccounts = []seed{
	{RoleCash, "Cash", AccountTypeAsset},
	{RoleBank, "Bank", AccountTypeAsset},
	{RoleAccountsReceivable, "Accounts Receivable", AccountTypeAsset},
	{RoleInventory, "Inventory", AccountTypeAsset},
	{RoleAccountsPayable, "Accounts Payable", AccountTypeLiability},
	{RoleGSTOutput, "GST Output", AccountTypeLiability},
	{RoleGSTInput, "GST Input", AccountTypeAsset},
	{RoleSalesRevenue, "Sales Revenue", AccountTypeIncome},
	{RolePurchasesExpense, "Purchases Expense", AccountTypeExpense},
	{RoleOwnersEquity, "Owner's Equity", AccountTypeEquity},
}

// Name returns the account name the role is bound to.
func (r Role) Name() string {
	for _, s := range seedAccounts {
		if s.role == r {
			return s.name
		}
	}
	return ""
}

func (r Role) String() string {
	if name := r.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// SeedAccounts lists the accounts every installation starts with.
func SeedAccounts() []Account {
	out := make([]Account, 0, len(seedAccounts))
	for _, s := range seedAccounts {
		out = append(out, Account{Name: s.name, Type: s.typ})
	}
	return out
}

// ChartStore persists the seed accounts and looks them up by name.
type ChartStore interface {
	EnsureAccounts(ctx context.Context, accounts []Account) error
	AccountIDsByName(ctx context.Context, names []string) (map[string]int64, error)
}

// Chart resolves roles to account ids. It is immutable once built.
type Chart struct {
	ids map[Role]int64
}

// NewChart builds a chart from name->id pairs, failing when a role is missing.
func NewChart(byName map[string]int64) (*Chart, error) {
	ids := make(map[Role]int64, len(seedAccounts))
	for _, s := range seedAccounts {
		id, ok := byName[s.name]
		if !ok || id <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, s.name)
		}
		ids[s.role] = id
	}
	return &Chart{ids: ids}, nil
}

// Resolve returns the account id bound to role.
func (c *Chart) Resolve(role Role) (int64, error) {
	if c != nil {
		if id, ok := c.ids[role]; ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, role)
}

// Bootstrap inserts the seed accounts when absent and resolves every role.
// Safe to run on every start; existing rows are left untouched.
func Bootstrap(ctx context.Context, store ChartStore) (*Chart, error) {
	if err := store.EnsureAccounts(ctx, SeedAccounts()); err != nil {
		return nil, fmt.Errorf("accounting: seed chart: %w", err)
	}
	names := make([]string, 0, len(seedAccounts))
	for _, s := range seedAccounts {
		names = append(names, s.name)
	}
	byName, err := store.AccountIDsByName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("accounting: load chart: %w", err)
	}
	return NewChart(byName)
}
