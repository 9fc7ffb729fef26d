package products

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

// listLimit caps list endpoints.
const listLimit = 200

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, form ProductForm) (Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, name, type, sales_price, purchase_price, sale_tax_id, purchase_tax_id, hsn_code, category, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.SalesPrice, &p.PurchasePrice, &p.SaleTaxID, &p.PurchaseTaxID, &p.HSNCode, &p.Category, &p.CreatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`, listLimit)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, db.Classify(rows.Err())
}

func (r *repository) Create(ctx context.Context, form ProductForm) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, type, sales_price, purchase_price, sale_tax_id, purchase_tax_id, hsn_code, category)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+productColumns,
		form.Name, string(form.Type), form.SalesPrice, form.PurchasePrice, form.SaleTaxID, form.PurchaseTaxID, form.HSNCode, form.Category)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, db.Classify(err)
	}
	return p, nil
}
