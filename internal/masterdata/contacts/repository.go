package contacts

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

const listLimit = 200

type Repository interface {
	List(ctx context.Context) ([]Contact, error)
	Get(ctx context.Context, id int64) (Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const contactColumns = `id, name, type, email, mobile, address, city, state, pincode, profile_image, created_at`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Email, &c.Mobile, &c.Address, &c.City, &c.State, &c.Pincode, &c.ProfileImage, &c.CreatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC LIMIT $1`, listLimit)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, db.Classify(rows.Err())
}

func (r *repository) Get(ctx context.Context, id int64) (Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		return Contact{}, db.Classify(err)
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Contact) (Contact, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO contacts (name, type, email, mobile, address, city, state, pincode, profile_image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+contactColumns,
		c.Name, string(c.Type), c.Email, c.Mobile, c.Address, c.City, c.State, c.Pincode, c.ProfileImage)
	created, err := scanContact(row)
	if err != nil {
		return Contact{}, db.Classify(err)
	}
	return created, nil
}
