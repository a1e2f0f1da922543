// Package memory is a process-local storage driver for development and tests.
// A transaction holds the store lock from Begin until Commit or Rollback, so
// transactions are serializable; Rollback replays an undo log.
package memory

import (
	"context"
	"errors"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("memory: transaction not opened by this store")

type walletKey struct {
	owner    uuid.UUID
	currency string
}

// Store holds wallets and journal entries.
type Store struct {
	mu      sync.Mutex
	wallets map[walletKey]*domain.Wallet
	journal []*domain.Transaction
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{wallets: make(map[walletKey]*domain.Wallet)}
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &Tx{store: s}, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory" }

// Tx is the store's pgx.Tx. Only Commit and Rollback are meaningful; the
// repositories in this package recognise it by type.
type Tx struct {
	pgx.Tx
	store  *Store
	undo   []func()
	closed bool
}

// Commit keeps every change and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

// Rollback reverts every change in reverse order and releases the store.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) txFrom(tx pgx.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt.store != s {
		return nil, errForeignTx
	}
	if mt.closed {
		return nil, pgx.ErrTxClosed
	}
	return mt, nil
}
