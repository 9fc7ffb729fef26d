package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementValidate(t *testing.T) {
	valid := Movement{ProductID: 4, Quantity: decimal.NewFromInt(2), Direction: DirectionOut, RefType: RefInvoice, RefID: 1}
	require.NoError(t, valid.Validate())

	cases := map[string]func(m *Movement){
		"no product":    func(m *Movement) { m.ProductID = 0 },
		"zero qty":      func(m *Movement) { m.Quantity = decimal.Zero },
		"negative qty":  func(m *Movement) { m.Quantity = decimal.NewFromInt(-1) },
		"bad direction": func(m *Movement) { m.Direction = "sideways" },
		"no ref":        func(m *Movement) { m.RefID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := valid
			mutate(&m)
			assert.ErrorIs(t, m.Validate(), ErrInvalidMovement)
		})
	}
}

func TestWriterRejectsInvalidBeforeQuery(t *testing.T) {
	w := NewWriter(nil)
	err := w.Append(context.Background(), Movement{})
	assert.ErrorIs(t, err, ErrInvalidMovement)
}
