package accounting

import (
	"context"
	"fmt"
	"strings"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// RepositoryPort abstracts the persistence the service relies on.
type RepositoryPort interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	UpsertAccount(ctx context.Context, in CreateAccountInput) (Account, error)
	EntriesByRef(ctx context.Context, ref Ref) ([]LedgerEntry, error)
	UnbalancedPostings(ctx context.Context) ([]UnbalancedPosting, error)
}

// Service exposes chart maintenance and ledger inspection.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListAccounts returns the chart of accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// CreateAccount upserts an account by name.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Account{}, fmt.Errorf("%w: account name is required", shared.ErrValidation)
	}
	if !in.Type.Valid() {
		return Account{}, ErrInvalidAccountType
	}
	return s.repo.UpsertAccount(ctx, in)
}

// Entries lists ledger rows of a document.
func (s *Service) Entries(ctx context.Context, ref Ref) ([]LedgerEntry, error) {
	switch ref.Type {
	case RefInvoice, RefPayment:
	default:
		return nil, fmt.Errorf("%w: ref_type must be invoice or payment", shared.ErrValidation)
	}
	if ref.ID <= 0 {
		return nil, fmt.Errorf("%w: ref_id must be positive", shared.ErrValidation)
	}
	return s.repo.EntriesByRef(ctx, ref)
}

// CheckIntegrity returns every posting group that does not balance.
func (s *Service) CheckIntegrity(ctx context.Context) ([]UnbalancedPosting, error) {
	return s.repo.UnbalancedPostings(ctx)
}
