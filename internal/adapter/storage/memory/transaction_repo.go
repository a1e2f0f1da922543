package memory

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. Entries are kept in
// insertion order; listings walk it backwards for newest first.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a journal repository over store.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if t.ExternalRef != nil && t.Status != domain.TransactionStatusFailed {
		if live := r.liveByRef(*t.ExternalRef); live != nil {
			return fmt.Errorf("insert transaction %s: %w", *t.ExternalRef, domain.ErrDuplicateReference)
		}
	}

	cp := *t
	r.store.journal = append(r.store.journal, &cp)
	n := len(r.store.journal)
	mt.onRollback(func() { r.store.journal = r.store.journal[:n-1] })
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, t := range r.store.journal {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *TransactionRepo) GetByExternalRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyOf(r.liveByRef(ref)), nil
}

func (r *TransactionRepo) GetByExternalRefInTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Transaction, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	return copyOf(r.liveByRef(ref)), nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, reason *string) error {
	mt, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	for _, t := range r.store.journal {
		if t.ID != id {
			continue
		}
		if !t.CanTransitionTo(status) {
			return fmt.Errorf("update transaction %s: %w", id, domain.ErrInvalidStatusTransition)
		}
		prev := *t
		mt.onRollback(func() { *t = prev })

		now := time.Now().UTC()
		t.Status = status
		t.FailureReason = reason
		t.ProcessedAt = &now
		return nil
	}
	return fmt.Errorf("update transaction %s: %w", id, domain.ErrInvalidStatusTransition)
}

func (r *TransactionRepo) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	filter = filter.Normalize()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.Transaction
	for i := len(r.store.journal) - 1; i >= 0; i-- {
		if t := r.store.journal[i]; filter.Matches(t) {
			matched = append(matched, *t)
		}
	}

	total := int64(len(matched))
	start := filter.Offset()
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// liveByRef returns the newest non-failed entry for ref. Caller holds the lock.
func (r *TransactionRepo) liveByRef(ref string) *domain.Transaction {
	for i := len(r.store.journal) - 1; i >= 0; i-- {
		t := r.store.journal[i]
		if t.ExternalRef != nil && *t.ExternalRef == ref && t.Status != domain.TransactionStatusFailed {
			return t
		}
	}
	return nil
}

func copyOf(t *domain.Transaction) *domain.Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
