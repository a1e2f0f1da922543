package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a wallet repository over store.
func NewWalletRepo(store *Store) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := walletKey{w.OwnerID, w.Currency}
	if _, ok := r.store.wallets[key]; ok {
		return fmt.Errorf("insert wallet: %w", domain.ErrWalletExists)
	}
	cp := *w
	r.store.wallets[key] = &cp
	return nil
}

func (r *WalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.lookup(ownerID, currency), nil
}

func (r *WalletRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	wallets := []domain.Wallet{}
	for key, w := range r.store.wallets {
		if key.owner == ownerID {
			wallets = append(wallets, *w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Currency < wallets[j].Currency })
	return wallets, nil
}

func (r *WalletRepo) GetByOwnerInTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	return r.lookup(ownerID, currency), nil
}

func (r *WalletRepo) GetOrCreate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	mt, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}
	if w := r.lookup(ownerID, currency); w != nil {
		return w, nil
	}

	key := walletKey{ownerID, currency}
	w := domain.NewWallet(ownerID, currency)
	r.store.wallets[key] = w
	mt.onRollback(func() { delete(r.store.wallets, key) })

	cp := *w
	return &cp, nil
}

func (r *WalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string, delta decimal.Decimal, expectedVersion int64) (*domain.Wallet, error) {
	mt, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	w, ok := r.store.wallets[walletKey{ownerID, currency}]
	if !ok {
		return nil, fmt.Errorf("apply wallet delta: %w", domain.ErrWalletNotFound)
	}
	if w.Version != expectedVersion {
		return nil, fmt.Errorf("apply wallet delta: version %d, expected %d: %w", w.Version, expectedVersion, domain.ErrConcurrencyConflict)
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("apply wallet delta: %w", domain.ErrInsufficientFunds)
	}

	prev := *w
	mt.onRollback(func() { *w = prev })

	w.Balance = next
	w.Version++
	w.UpdatedAt = time.Now().UTC()

	cp := *w
	return &cp, nil
}

func (r *WalletRepo) lookup(ownerID uuid.UUID, currency string) *domain.Wallet {
	w, ok := r.store.wallets[walletKey{ownerID, currency}]
	if !ok {
		return nil
	}
	cp := *w
	return &cp
}
