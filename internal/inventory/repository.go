package inventory

import (
	"context"
	"fmt"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

// Writer appends stock movements through a pgx querier, normally the
// transaction of the document that caused them.
type Writer struct {
	q db.Querier
}

// NewWriter binds a writer to q.
func NewWriter(q db.Querier) *Writer {
	return &Writer{q: q}
}

// Append validates and inserts m.
func (w *Writer) Append(ctx context.Context, m Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, err := w.q.Exec(ctx, `INSERT INTO stock_movements (product_id, quantity, direction, ref_type, ref_id)
VALUES ($1, $2, $3, $4, $5)`, m.ProductID, m.Quantity, string(m.Direction), m.RefType, m.RefID); err != nil {
		return fmt.Errorf("inventory: append movement: %w", db.Classify(err))
	}
	return nil
}
