package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type separates stocked goods from services.
type Type string

const (
	TypeGoods   Type = "goods"
	TypeService Type = "service"
)

// Product represents a product entity
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Type          Type            `json:"type"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SaleTaxID     *int64          `json:"sale_tax_id"`
	PurchaseTaxID *int64          `json:"purchase_tax_id"`
	HSNCode       *string         `json:"hsn_code"`
	Category      *string         `json:"category"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Stocked reports whether invoicing the product moves inventory.
func (p Product) Stocked() bool {
	return p.Type == TypeGoods
}
