package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside the caller's storage transaction.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	GetByOwnerInTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	// GetOrCreate returns the (owner, currency) wallet, inserting an empty one if
	// absent. Concurrent callers observe the same single wallet.
	GetOrCreate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	// ApplyDelta adds delta to the balance iff the stored version equals
	// expectedVersion and the result stays non-negative.
	ApplyDelta(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, currency string, delta decimal.Decimal, expectedVersion int64) (*domain.Wallet, error)
}

// TransactionRepository defines persistence operations for journal entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetByExternalRef returns the newest non-failed entry for ref.
	GetByExternalRef(ctx context.Context, ref string) (*domain.Transaction, error)
	GetByExternalRefInTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Transaction, error)
	// UpdateStatus moves a PENDING entry to a terminal status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, reason *string) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
}

// UserDirectory resolves identity-provider users. Read-only.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides storage transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
