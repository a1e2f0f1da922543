package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, owner_id, currency, balance::text, version, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. An existing (owner, currency) pair yields
// domain.ErrWalletExists.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, currency, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Currency, w.Balance.String(), w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert wallet: %w", domain.ErrWalletExists)
		}
		return wrapErr("insert wallet", err)
	}
	return nil
}

// GetByOwner fetches a wallet outside any transaction.
func (r *WalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 AND currency = $2`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, ownerID, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get wallet by owner", err)
	}
	return w, nil
}

// ListByOwner returns every wallet of an owner ordered by currency.
func (r *WalletRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, wrapErr("list wallets", err)
	}
	defer rows.Close()

	wallets := []domain.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, wrapErr("scan wallet row", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate wallet rows", err)
	}
	return wallets, nil
}

// GetByOwnerInTx reads a wallet inside tx.
func (r *WalletRepo) GetByOwnerInTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 AND currency = $2`

	w, err := scanWallet(tx.QueryRow(ctx, query, ownerID, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get wallet in tx", err)
	}
	return w, nil
}

// GetOrCreate inserts an empty wallet unless one exists, then reads it back.
// The unique (owner_id, currency) constraint lets exactly one insert win.
func (r *WalletRepo) GetOrCreate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	insert := `INSERT INTO wallets (id, owner_id, currency, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, NOW(), NOW())
		ON CONFLICT (owner_id, currency) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, uuid.New(), ownerID, currency); err != nil {
		return nil, wrapErr("ensure wallet", err)
	}

	w, err := r.GetByOwnerInTx(ctx, tx, ownerID, currency)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("ensure wallet %s/%s: %w", ownerID, currency, domain.ErrWalletNotFound)
	}
	return w, nil
}

// ApplyDelta adds delta to the balance when the stored version still equals
// expectedVersion and the result stays non-negative. The version is bumped on
// success. When no row is updated a version lookup decides between not found,
// concurrent modification and insufficient funds.
func (r *WalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string, delta decimal.Decimal, expectedVersion int64) (*domain.Wallet, error) {
	query := `UPDATE wallets
		SET balance = balance + $1::numeric, version = version + 1, updated_at = NOW()
		WHERE owner_id = $2 AND currency = $3 AND version = $4 AND balance + $1::numeric >= 0
		RETURNING ` + walletColumns

	w, err := scanWallet(tx.QueryRow(ctx, query, delta.String(), ownerID, currency, expectedVersion))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapErr("apply wallet delta", err)
	}

	var version int64
	lookup := `SELECT version FROM wallets WHERE owner_id = $1 AND currency = $2`
	if err := tx.QueryRow(ctx, lookup, ownerID, currency).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("apply wallet delta: %w", domain.ErrWalletNotFound)
		}
		return nil, wrapErr("read wallet version", err)
	}
	if version != expectedVersion {
		return nil, fmt.Errorf("apply wallet delta: version %d, expected %d: %w", version, expectedVersion, domain.ErrConcurrencyConflict)
	}
	return nil, fmt.Errorf("apply wallet delta: %w", domain.ErrInsufficientFunds)
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance string
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Currency, &balance, &w.Version, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	w.Balance = b
	return w, nil
}
