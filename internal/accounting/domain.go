package accounting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeEquity    AccountType = "equity"
)

// Valid reports whether t is one of the five account classes.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeIncome, AccountTypeExpense, AccountTypeEquity:
		return true
	}
	return false
}

// Account models a chart of accounts row.
type Account struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// RefType names the business document a ledger entry originates from.
type RefType string

const (
	RefInvoice RefType = "invoice"
	RefPayment RefType = "payment"
)

// Ref points at the originating document.
type Ref struct {
	Type RefType
	ID   int64
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// LedgerEntry is one persisted debit or credit row.
type LedgerEntry struct {
	ID        int64
	PostingID uuid.UUID
	AccountID int64
	Account   string
	Ref       Ref
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	CreatedAt time.Time
}

// UnbalancedPosting reports a posting group whose sides disagree.
type UnbalancedPosting struct {
	PostingID uuid.UUID
	Ref       Ref
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// CreateAccountInput carries the fields accepted when upserting an account.
type CreateAccountInput struct {
	Name string      `json:"name" validate:"required"`
	Type AccountType `json:"type" validate:"required,oneof=asset liability income expense equity"`
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: posting lines must balance")
	// ErrAccountNotFound indicates a chart role could not be resolved.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrInvalidLine indicates a negative or two-sided posting line.
	ErrInvalidLine = errors.New("accounting: invalid posting line")
	// ErrInvalidAccountType rejects unknown account classes.
	ErrInvalidAccountType = fmt.Errorf("%w: account type must be asset, liability, income, expense or equity", shared.ErrValidation)
)
