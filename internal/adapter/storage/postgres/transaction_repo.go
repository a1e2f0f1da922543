package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, type, from_wallet_id, to_wallet_id, from_owner_id, to_owner_id,
	debit_amount::text, debit_currency, credit_amount::text, credit_currency, fee_amount::text, rate::text,
	status, external_ref, failure_reason, created_at, processed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a journal entry within a database transaction. A live entry
// already holding the external reference yields domain.ErrDuplicateReference.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, type, from_wallet_id, to_wallet_id, from_owner_id, to_owner_id,
		debit_amount, debit_currency, credit_amount, credit_currency, fee_amount, rate,
		status, external_ref, failure_reason, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9::numeric, $10, $11::numeric, $12::numeric,
		$13, $14, $15, $16, $17)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Type, t.FromWalletID, t.ToWalletID, t.FromOwnerID, t.ToOwnerID,
		t.DebitAmount.String(), t.DebitCurrency, t.CreditAmount.String(), t.CreditCurrency,
		t.FeeAmount.String(), decimalText(t.Rate),
		t.Status, t.ExternalRef, t.FailureReason, t.CreatedAt, t.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert transaction %s: %w", t.Reference(), domain.ErrDuplicateReference)
		}
		return wrapErr("insert transaction", err)
	}
	return nil
}

// GetByID fetches a journal entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get transaction by id")
}

// GetByExternalRef fetches the newest non-failed entry for ref.
func (r *TransactionRepo) GetByExternalRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	return r.scanOne(r.pool.QueryRow(ctx, byExternalRefQuery, ref), "get transaction by external ref")
}

// GetByExternalRefInTx is GetByExternalRef inside tx.
func (r *TransactionRepo) GetByExternalRefInTx(ctx context.Context, tx pgx.Tx, ref string) (*domain.Transaction, error) {
	return r.scanOne(tx.QueryRow(ctx, byExternalRefQuery, ref), "get transaction by external ref in tx")
}

const byExternalRefQuery = `SELECT ` + transactionColumns + ` FROM transactions
	WHERE external_ref = $1 AND status <> 'FAILED'
	ORDER BY created_at DESC LIMIT 1`

// UpdateStatus moves a PENDING entry to status. Zero affected rows means the
// entry was already final (or absent): domain.ErrInvalidStatusTransition.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, reason *string) error {
	query := `UPDATE transactions SET status = $1, failure_reason = $2, processed_at = $3
		WHERE id = $4 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, status, reason, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update transaction status: %w", domain.ErrDuplicateReference)
		}
		return wrapErr("update transaction status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %s: %w", id, domain.ErrInvalidStatusTransition)
	}
	return nil
}

// List fetches an owner's journal entries, newest first, with filters.
func (r *TransactionRepo) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	filter = filter.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("(from_owner_id = $%d OR to_owner_id = $%d)", argIdx, argIdx))
	args = append(args, filter.OwnerID)
	argIdx++

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *filter.Type)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Currency != "" {
		conditions = append(conditions, fmt.Sprintf("(debit_currency = $%d OR credit_currency = $%d)", argIdx, argIdx))
		args = append(args, filter.Currency)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count transactions", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, wrapErr("list transactions", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, wrapErr("scan transaction row", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("iterate transaction rows", err)
	}
	return txns, total, nil
}

func (r *TransactionRepo) scanOne(row pgx.Row, op string) (*domain.Transaction, error) {
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return t, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var debit, credit, fee string
	var rate *string
	err := row.Scan(
		&t.ID, &t.Type, &t.FromWalletID, &t.ToWalletID, &t.FromOwnerID, &t.ToOwnerID,
		&debit, &t.DebitCurrency, &credit, &t.CreditCurrency, &fee, &rate,
		&t.Status, &t.ExternalRef, &t.FailureReason, &t.CreatedAt, &t.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.DebitAmount, err = decimal.NewFromString(debit); err != nil {
		return nil, fmt.Errorf("parse debit_amount: %w", err)
	}
	if t.CreditAmount, err = decimal.NewFromString(credit); err != nil {
		return nil, fmt.Errorf("parse credit_amount: %w", err)
	}
	if t.FeeAmount, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse fee_amount: %w", err)
	}
	if rate != nil {
		v, err := decimal.NewFromString(*rate)
		if err != nil {
			return nil, fmt.Errorf("parse rate: %w", err)
		}
		t.Rate = &v
	}
	return t, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
