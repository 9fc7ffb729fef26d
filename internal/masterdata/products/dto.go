package products

import "github.com/shopspring/decimal"

type ProductForm struct {
	Name          string          `json:"name" validate:"required"`
	Type          Type            `json:"type" validate:"required,oneof=goods service"`
	SalesPrice    decimal.Decimal `json:"sales_price" validate:"gte=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gte=0"`
	SaleTaxID     *int64          `json:"sale_tax_id" validate:"omitempty,gt=0"`
	PurchaseTaxID *int64          `json:"purchase_tax_id" validate:"omitempty,gt=0"`
	HSNCode       *string         `json:"hsn_code"`
	Category      *string         `json:"category"`
}
