package postgres

import (
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// wrapErr annotates err with op. Serialization failures and deadlocks surface
// as domain.ErrConcurrencyConflict so the orchestrator retries them.
func wrapErr(op string, err error) error {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrencyConflict, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInsufficientFunds, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
