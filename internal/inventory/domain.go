package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether stock enters or leaves.
type Direction string

const (
	// DirectionIn represents an inbound movement.
	DirectionIn Direction = "in"
	// DirectionOut represents an outbound movement.
	DirectionOut Direction = "out"
)

// RefInvoice marks movements written while invoicing.
const RefInvoice = "invoice"

// Movement models one append-only stock movement row.
type Movement struct {
	ID        int64
	ProductID int64
	Quantity  decimal.Decimal
	Direction Direction
	RefType   string
	RefID     int64
	CreatedAt time.Time
}

// ErrInvalidMovement indicates a movement that cannot be recorded.
var ErrInvalidMovement = errors.New("inventory: invalid movement")

// Validate checks the movement before it is written.
func (m Movement) Validate() error {
	if m.ProductID <= 0 {
		return fmt.Errorf("%w: product required", ErrInvalidMovement)
	}
	if !m.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidMovement)
	}
	if m.Direction != DirectionIn && m.Direction != DirectionOut {
		return fmt.Errorf("%w: direction %q", ErrInvalidMovement, m.Direction)
	}
	if m.RefType == "" || m.RefID <= 0 {
		return fmt.Errorf("%w: reference required", ErrInvalidMovement)
	}
	return nil
}
