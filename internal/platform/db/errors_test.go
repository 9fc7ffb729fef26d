package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, shared.ErrNotFound},
		{"fk violation", &pgconn.PgError{Code: "23503", Message: "violates foreign key"}, shared.ErrValidation},
		{"check violation", &pgconn.PgError{Code: "23514"}, shared.ErrValidation},
		{"numeric overflow", &pgconn.PgError{Code: "22003", Message: "numeric field overflow"}, shared.ErrValidation},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, shared.ErrUnavailable},
		{"connection failure", &pgconn.PgError{Code: "08006"}, shared.ErrUnavailable},
		{"deadline", fmt.Errorf("acquire: %w", context.DeadlineExceeded), shared.ErrUnavailable},
		{"already classified", fmt.Errorf("%w: x", shared.ErrValidation), shared.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tc.err), tc.want)
		})
	}
}

func TestClassifyPassesThroughUnknown(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, Classify(plain))
	assert.NoError(t, Classify(nil))

	unique := &pgconn.PgError{Code: "23505"}
	got := Classify(unique)
	assert.False(t, errors.Is(got, shared.ErrValidation))
	assert.False(t, errors.Is(got, shared.ErrUnavailable))
}
