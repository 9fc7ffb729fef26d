package taxes

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context) ([]Tax, error)
	Create(ctx context.Context, in CreateTaxInput) (Tax, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Tax, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, method, rate, applies_on, created_at FROM taxes ORDER BY id ASC`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var taxes []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Method, &t.Rate, &t.AppliesOn, &t.CreatedAt); err != nil {
			return nil, err
		}
		taxes = append(taxes, t)
	}
	return taxes, db.Classify(rows.Err())
}

func (r *repository) Create(ctx context.Context, in CreateTaxInput) (Tax, error) {
	var t Tax
	err := r.pool.QueryRow(ctx, `INSERT INTO taxes (name, method, rate, applies_on) VALUES ($1, $2, $3, $4)
RETURNING id, name, method, rate, applies_on, created_at`, in.Name, string(in.Method), in.Rate, string(in.AppliesOn)).
		Scan(&t.ID, &t.Name, &t.Method, &t.Rate, &t.AppliesOn, &t.CreatedAt)
	if err != nil {
		return Tax{}, db.Classify(err)
	}
	return t, nil
}
