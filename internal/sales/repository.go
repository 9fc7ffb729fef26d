package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/inventory"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for sales operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations. It is the only path through
// which ledger entries and stock movements get written.
type TxRepository interface {
	// Sales Order operations
	InsertSalesOrder(ctx context.Context, order SalesOrder) (SalesOrder, error)
	InsertSalesOrderItem(ctx context.Context, item SalesOrderItem) (int64, error)
	GetSalesOrder(ctx context.Context, id int64) (SalesOrder, error)
	BillableLines(ctx context.Context, salesOrderID int64) ([]BillableLine, error)

	// Invoice operations
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertInvoiceItem(ctx context.Context, item InvoiceItem) (int64, error)
	LockInvoice(ctx context.Context, id int64) (Invoice, error)
	MarkInvoicePaid(ctx context.Context, id int64) error

	// Payment operations
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error)

	// Ledger and stock
	AppendPosting(ctx context.Context, p accounting.Posting) error
	AppendMovement(ctx context.Context, m inventory.Movement) error
}

type txRepo struct {
	tx     pgx.Tx
	ledger *accounting.LedgerWriter
	stock  *inventory.Writer
}

// WithTx wraps callback in a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			tx:     tx,
			ledger: accounting.NewLedgerWriter(tx),
			stock:  inventory.NewWriter(tx),
		})
	})
}

// ============================================================================
// SALES ORDER OPERATIONS
// ============================================================================

func (r *txRepo) InsertSalesOrder(ctx context.Context, order SalesOrder) (SalesOrder, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_orders (customer_id, status) VALUES ($1, $2) RETURNING id, created_at`,
		order.CustomerID, string(order.Status)).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return SalesOrder{}, db.Classify(err)
	}
	return order, nil
}

func (r *txRepo) InsertSalesOrderItem(ctx context.Context, item SalesOrderItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_order_items (so_id, product_id, quantity, unit_price, tax_id)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, item.SalesOrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TaxID).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

func (r *txRepo) GetSalesOrder(ctx context.Context, id int64) (SalesOrder, error) {
	var so SalesOrder
	err := r.tx.QueryRow(ctx, `SELECT id, customer_id, status, created_at FROM sales_orders WHERE id = $1`, id).
		Scan(&so.ID, &so.CustomerID, &so.Status, &so.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalesOrder{}, fmt.Errorf("%w: %d", ErrSalesOrderNotFound, id)
	}
	if err != nil {
		return SalesOrder{}, db.Classify(err)
	}
	return so, nil
}

func (r *txRepo) BillableLines(ctx context.Context, salesOrderID int64) ([]BillableLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT soi.product_id, p.name, p.type, soi.quantity, soi.unit_price, soi.tax_id, t.method, t.rate
FROM sales_order_items soi
JOIN products p ON p.id = soi.product_id
LEFT JOIN taxes t ON t.id = soi.tax_id
WHERE soi.so_id = $1
ORDER BY soi.id`, salesOrderID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var lines []BillableLine
	for rows.Next() {
		var (
			line   BillableLine
			method *string
			rate   decimal.NullDecimal
		)
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.ProductType, &line.Quantity, &line.UnitPrice, &line.TaxID, &method, &rate); err != nil {
			return nil, err
		}
		if method != nil && rate.Valid {
			line.TaxMethod = taxes.Method(*method)
			line.TaxRate = rate.Decimal
		}
		lines = append(lines, line)
	}
	return lines, db.Classify(rows.Err())
}

// ============================================================================
// INVOICE OPERATIONS
// ============================================================================

func (r *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (so_id, customer_id, status, total, tax_total, due_date)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		inv.SalesOrderID, inv.CustomerID, string(inv.Status), inv.Total, inv.TaxTotal, inv.DueDate).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, db.Classify(err)
	}
	return inv, nil
}

func (r *txRepo) InsertInvoiceItem(ctx context.Context, item InvoiceItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, product_id, description, quantity, unit_price, tax_id)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.InvoiceID, item.ProductID, item.Description, item.Quantity, item.UnitPrice, item.TaxID).Scan(&id)
	if err != nil {
		return 0, db.Classify(err)
	}
	return id, nil
}

// LockInvoice reads the invoice row and holds a row lock until the
// transaction ends, so concurrent payments on one invoice run one at a time.
func (r *txRepo) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT i.id, i.so_id, i.customer_id, '', i.status, i.total, i.tax_total, 0::numeric, i.due_date, i.created_at
FROM invoices i WHERE i.id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
	}
	if err != nil {
		return Invoice{}, db.Classify(err)
	}
	return inv, nil
}

func (r *txRepo) MarkInvoicePaid(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `UPDATE invoices SET status = 'paid' WHERE id = $1 AND status <> 'paid'`, id); err != nil {
		return db.Classify(err)
	}
	return nil
}

// ============================================================================
// PAYMENT OPERATIONS
// ============================================================================

func (r *txRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO payments (invoice_id, account_id, method, amount) VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, p.InvoiceID, p.AccountID, string(p.Method), p.Amount).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Payment{}, db.Classify(err)
	}
	return p, nil
}

// SumPayments runs as its own statement, so under read committed it sees
// every payment committed before it started.
func (r *txRepo) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var paid decimal.Decimal
	if err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&paid); err != nil {
		return decimal.Zero, db.Classify(err)
	}
	return paid, nil
}

func (r *txRepo) AppendPosting(ctx context.Context, p accounting.Posting) error {
	return r.ledger.Append(ctx, p)
}

func (r *txRepo) AppendMovement(ctx context.Context, m inventory.Movement) error {
	return r.stock.Append(ctx, m)
}

// ============================================================================
// READS
// ============================================================================

// ListSalesOrders returns the most recent orders with their items.
func (r *Repository) ListSalesOrders(ctx context.Context, limit int) ([]SalesOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT so.id, so.customer_id, c.name, so.status, so.created_at
FROM sales_orders so
JOIN contacts c ON c.id = so.customer_id
ORDER BY so.created_at DESC, so.id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var orders []SalesOrder
	index := map[int64]int{}
	for rows.Next() {
		var so SalesOrder
		if err := rows.Scan(&so.ID, &so.CustomerID, &so.Customer, &so.Status, &so.CreatedAt); err != nil {
			return nil, err
		}
		index[so.ID] = len(orders)
		orders = append(orders, so)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, so := range orders {
		ids = append(ids, so.ID)
	}
	itemRows, err := r.pool.Query(ctx, `SELECT id, so_id, product_id, quantity, unit_price, tax_id
FROM sales_order_items WHERE so_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it SalesOrderItem
		if err := itemRows.Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TaxID); err != nil {
			return nil, err
		}
		pos := index[it.SalesOrderID]
		orders[pos].Items = append(orders[pos].Items, it)
	}
	return orders, db.Classify(itemRows.Err())
}

const invoiceSelect = `SELECT i.id, i.so_id, i.customer_id, c.name, i.status, i.total, i.tax_total,
	COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.invoice_id = i.id), 0),
	i.due_date, i.created_at
FROM invoices i
JOIN contacts c ON c.id = i.customer_id`

// ListInvoices returns the most recent invoices with the amount paid so far.
func (r *Repository) ListInvoices(ctx context.Context, limit int) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, invoiceSelect+` ORDER BY i.created_at DESC, i.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, db.Classify(rows.Err())
}

// GetInvoice loads one invoice with its items and payments total.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
	}
	if err != nil {
		return Invoice{}, db.Classify(err)
	}

	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, product_id, description, quantity, unit_price, tax_id
FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return Invoice{}, db.Classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxID); err != nil {
			return Invoice{}, err
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, db.Classify(rows.Err())
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv  Invoice
		soID *int64
	)
	if err := row.Scan(&inv.ID, &soID, &inv.CustomerID, &inv.Customer, &inv.Status, &inv.Total, &inv.TaxTotal, &inv.Paid, &inv.DueDate, &inv.CreatedAt); err != nil {
		return Invoice{}, err
	}
	if soID != nil {
		inv.SalesOrderID = *soID
	}
	return inv, nil
}
