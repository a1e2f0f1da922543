package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor using the connection pool.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin transaction", err)
	}
	return &ledgerTx{Tx: tx}, nil
}

// ledgerTx reports commit-time serialization failures as conflicts.
type ledgerTx struct {
	pgx.Tx
}

func (t *ledgerTx) Commit(ctx context.Context) error {
	if err := t.Tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
