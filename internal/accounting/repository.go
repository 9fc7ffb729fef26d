package accounting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
)

// Repository persists accounting entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureAccounts inserts accounts that do not exist yet, keyed by name.
func (r *Repository) EnsureAccounts(ctx context.Context, accounts []Account) error {
	for _, a := range accounts {
		if _, err := r.pool.Exec(ctx, `INSERT INTO chart_of_accounts (name, type) VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING`, a.Name, string(a.Type)); err != nil {
			return db.Classify(err)
		}
	}
	return nil
}

// AccountIDsByName returns the ids of the named accounts that exist.
func (r *Repository) AccountIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM chart_of_accounts WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	out := make(map[string]int64, len(names))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, db.Classify(rows.Err())
}

// ListAccounts returns every account ordered by type then name.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, type, created_at FROM chart_of_accounts ORDER BY type, name`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, db.Classify(rows.Err())
}

// UpsertAccount creates the account or updates the type of an existing one.
func (r *Repository) UpsertAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `INSERT INTO chart_of_accounts (name, type) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET type = EXCLUDED.type
RETURNING id, name, type, created_at`, in.Name, string(in.Type)).Scan(&a.ID, &a.Name, &a.Type, &a.CreatedAt)
	if err != nil {
		return Account{}, db.Classify(err)
	}
	return a, nil
}

// EntriesByRef lists the ledger rows written for a document.
func (r *Repository) EntriesByRef(ctx context.Context, ref Ref) ([]LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT le.id, le.posting_id, le.account_id, a.name, le.ref_type, le.ref_id, le.debit, le.credit, le.created_at
FROM ledger_entries le
JOIN chart_of_accounts a ON a.id = le.account_id
WHERE le.ref_type = $1 AND le.ref_id = $2
ORDER BY le.id`, string(ref.Type), ref.ID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.PostingID, &e.AccountID, &e.Account, &e.Ref.Type, &e.Ref.ID, &e.Debit, &e.Credit, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, db.Classify(rows.Err())
}

// UnbalancedPostings returns posting groups whose debits and credits differ.
func (r *Repository) UnbalancedPostings(ctx context.Context) ([]UnbalancedPosting, error) {
	rows, err := r.pool.Query(ctx, `SELECT posting_id, MIN(ref_type), MIN(ref_id), SUM(debit), SUM(credit)
FROM ledger_entries
GROUP BY posting_id
HAVING SUM(debit) <> SUM(credit)
ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	var out []UnbalancedPosting
	for rows.Next() {
		var u UnbalancedPosting
		if err := rows.Scan(&u.PostingID, &u.Ref.Type, &u.Ref.ID, &u.Debit, &u.Credit); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, db.Classify(rows.Err())
}

// LedgerWriter appends posting lines through any pgx querier, usually the
// transaction of the document being posted.
type LedgerWriter struct {
	q db.Querier
}

// NewLedgerWriter binds a writer to q.
func NewLedgerWriter(q db.Querier) *LedgerWriter {
	return &LedgerWriter{q: q}
}

// Append writes every line of p. Balance is guaranteed by NewPosting.
func (w *LedgerWriter) Append(ctx context.Context, p Posting) error {
	for _, line := range p.lines {
		if _, err := w.q.Exec(ctx, `INSERT INTO ledger_entries (posting_id, account_id, ref_type, ref_id, debit, credit)
VALUES ($1, $2, $3, $4, $5, $6)`, p.id, line.AccountID, string(p.ref.Type), p.ref.ID, line.Debit, line.Credit); err != nil {
			return fmt.Errorf("accounting: append %s: %w", p.ref, db.Classify(err))
		}
	}
	return nil
}
