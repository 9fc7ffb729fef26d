package db

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// SQLSTATE codes surfaced as client errors.
const (
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidText         = "22P02"
	codeNumericOverflow     = "22003"
)

// Classify folds driver errors into the shared taxonomy: missing rows become
// ErrNotFound, constraint violations ErrValidation, connectivity problems
// ErrUnavailable. Anything else is returned untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrUnavailable) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation, codeInvalidText, codeNumericOverflow:
			return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.Message)
		}
		// class 08 connection exception, 57P01..03 admin shutdown / cannot connect now
		if len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:3] == "57P") {
			return fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.SafeToRetry(err):
		return fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}
	return err
}
