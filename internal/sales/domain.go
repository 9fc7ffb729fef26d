package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// ============================================================================
// SALES ORDER
// ============================================================================

type SalesOrderStatus string

const (
	SalesOrderStatusConfirmed SalesOrderStatus = "confirmed"
)

type SalesOrder struct {
	ID         int64
	CustomerID int64
	Customer   string
	Status     SalesOrderStatus
	CreatedAt  time.Time
	Items      []SalesOrderItem
}

type SalesOrderItem struct {
	ID           int64
	SalesOrderID int64
	ProductID    int64
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TaxID        *int64
}

type CreateSalesOrderRequest struct {
	CustomerID int64                         `json:"customer_id" validate:"required,gt=0"`
	Items      []CreateSalesOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateSalesOrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	TaxID     *int64          `json:"tax_id" validate:"omitempty,gt=0"`
}

// ============================================================================
// INVOICE
// ============================================================================

// InvoiceStatus is the persisted invoice state. It only moves unpaid -> paid.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// Settlement is derived from the invoice total and the payments against it.
type Settlement string

const (
	SettlementUnpaid  Settlement = "unpaid"
	SettlementPartial Settlement = "partial"
	SettlementPaid    Settlement = "paid"
)

// SettlementFor classifies cumulative payments against a total.
func SettlementFor(total, paid decimal.Decimal) Settlement {
	switch {
	case paid.GreaterThanOrEqual(total):
		return SettlementPaid
	case paid.IsPositive():
		return SettlementPartial
	default:
		return SettlementUnpaid
	}
}

type Invoice struct {
	ID           int64
	SalesOrderID int64
	CustomerID   int64
	Customer     string
	Status       InvoiceStatus
	Total        decimal.Decimal
	TaxTotal     decimal.Decimal
	Paid         decimal.Decimal
	DueDate      *time.Time
	CreatedAt    time.Time
	Items        []InvoiceItem
}

// Subtotal is the untaxed amount.
func (inv Invoice) Subtotal() decimal.Decimal {
	return inv.Total.Sub(inv.TaxTotal)
}

// Outstanding never goes below zero, overpayments are reported as settled.
func (inv Invoice) Outstanding() decimal.Decimal {
	rest := inv.Total.Sub(inv.Paid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Settlement derives unpaid/partial/paid from the payments loaded with the invoice.
func (inv Invoice) Settlement() Settlement {
	if inv.Status == InvoiceStatusPaid {
		return SettlementPaid
	}
	return SettlementFor(inv.Total, inv.Paid)
}

type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	ProductID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxID       *int64
}

type GenerateInvoiceRequest struct {
	SalesOrderID int64  `json:"so_id" validate:"required,gt=0"`
	DueDate      string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// BillableLine is a sales order item joined with its product and tax.
// TaxMethod is empty when the item carries no tax.
type BillableLine struct {
	ProductID   int64
	ProductName string
	ProductType products.Type
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxID       *int64
	TaxMethod   taxes.Method
	TaxRate     decimal.Decimal
}

// ============================================================================
// PAYMENT
// ============================================================================

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodBank PaymentMethod = "bank"
)

// SettlementRole maps the method to the account that receives the money.
func (m PaymentMethod) SettlementRole() (accounting.Role, error) {
	switch m {
	case PaymentMethodCash:
		return accounting.RoleCash, nil
	case PaymentMethodBank:
		return accounting.RoleBank, nil
	default:
		return 0, ErrInvalidPaymentMethod
	}
}

type Payment struct {
	ID        int64
	InvoiceID int64
	AccountID int64
	Method    PaymentMethod
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type RegisterPaymentRequest struct {
	InvoiceID int64           `json:"invoice_id" validate:"required,gt=0"`
	Method    PaymentMethod   `json:"method" validate:"required,oneof=cash bank"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

// PaymentResult reports the invoice state after a payment commits.
type PaymentResult struct {
	InvoiceID   int64
	PaymentID   int64
	Status      Settlement
	Paid        decimal.Decimal
	Outstanding decimal.Decimal
}

// ============================================================================
// EVENTS
// ============================================================================

// InvoicePostedEvent is published after an invoice transaction commits.
type InvoicePostedEvent struct {
	Invoice Invoice
}

// PaymentPostedEvent is published after a payment transaction commits.
type PaymentPostedEvent struct {
	Payment Payment
	Result  PaymentResult
}

var (
	ErrSalesOrderNotFound   = fmt.Errorf("sales order %w", shared.ErrNotFound)
	ErrInvoiceNotFound      = fmt.Errorf("invoice %w", shared.ErrNotFound)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: payment method must be cash or bank", shared.ErrValidation)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be greater than zero", shared.ErrValidation)
	ErrEmptyOrder           = fmt.Errorf("%w: sales order requires at least one item", shared.ErrValidation)
	ErrAmountTooLarge       = fmt.Errorf("%w: amount exceeds %s", shared.ErrValidation, shared.FormatMoney(shared.MaxMoney))
)
