package reports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

// PgRepository reads report aggregates straight from the ledger and stock
// tables. Every query is a single statement so it sees one committed
// snapshot.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL report repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const profitAndLossSQL = `SELECT a.id, a.name, a.type,
	COALESCE(SUM(le.debit), 0), COALESCE(SUM(le.credit), 0)
FROM chart_of_accounts a
LEFT JOIN ledger_entries le ON le.account_id = a.id
	AND ($1::timestamptz IS NULL OR le.created_at >= $1)
	AND ($2::timestamptz IS NULL OR le.created_at <= $2)
WHERE a.type IN ('income', 'expense')
GROUP BY a.id, a.name, a.type
ORDER BY a.name`

const balanceSheetSQL = `SELECT a.id, a.name, a.type,
	COALESCE(SUM(le.debit), 0), COALESCE(SUM(le.credit), 0)
FROM chart_of_accounts a
LEFT JOIN ledger_entries le ON le.account_id = a.id
WHERE a.type IN ('asset', 'liability', 'equity')
GROUP BY a.id, a.name, a.type
ORDER BY a.name`

const stockSQL = `SELECT p.id, p.name,
	COALESCE(SUM(CASE WHEN sm.direction = 'in' THEN sm.quantity ELSE -sm.quantity END), 0)
FROM products p
LEFT JOIN stock_movements sm ON sm.product_id = p.id
GROUP BY p.id, p.name
ORDER BY p.name`

// ProfitAndLossBalances sums income and expense accounts within period.
func (r *PgRepository) ProfitAndLossBalances(ctx context.Context, period Period) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, profitAndLossSQL, period.From, period.To)
	if err != nil {
		return nil, db.Classify(err)
	}
	return collectBalances(rows)
}

// BalanceSheetBalances sums every asset, liability and equity account.
func (r *PgRepository) BalanceSheetBalances(ctx context.Context) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, balanceSheetSQL)
	if err != nil {
		return nil, db.Classify(err)
	}
	return collectBalances(rows)
}

// StockLevels nets inbound and outbound movements per product.
func (r *PgRepository) StockLevels(ctx context.Context) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx, stockSQL)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var out []StockLevel
	for rows.Next() {
		var lvl StockLevel
		if err := rows.Scan(&lvl.ProductID, &lvl.Product, &lvl.Qty); err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, db.Classify(rows.Err())
}

func collectBalances(rows pgx.Rows) ([]AccountBalance, error) {
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, db.Classify(rows.Err())
}
