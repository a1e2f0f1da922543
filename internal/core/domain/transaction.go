package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdraw   TransactionType = "WITHDRAW"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeConversion TransactionType = "CONVERSION"
)

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer, TransactionTypeConversion:
		return true
	}
	return false
}

// TransactionStatus represents the lifecycle state of a journal entry.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccessful, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is an immutable journal entry. Only Status, FailureReason and
// ProcessedAt change, and only once, on the PENDING -> terminal transition.
type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	Type           TransactionType   `json:"type"`
	FromWalletID   *uuid.UUID        `json:"from_wallet_id,omitempty"`
	ToWalletID     *uuid.UUID        `json:"to_wallet_id,omitempty"`
	FromOwnerID    *uuid.UUID        `json:"from_owner_id,omitempty"`
	ToOwnerID      *uuid.UUID        `json:"to_owner_id,omitempty"`
	DebitAmount    decimal.Decimal   `json:"debit_amount"`
	DebitCurrency  string            `json:"debit_currency"`
	CreditAmount   decimal.Decimal   `json:"credit_amount"`
	CreditCurrency string            `json:"credit_currency"`
	FeeAmount      decimal.Decimal   `json:"fee_amount"`
	Rate           *decimal.Decimal  `json:"rate,omitempty"`
	Status         TransactionStatus `json:"status"`
	ExternalRef    *string           `json:"external_ref,omitempty"`
	FailureReason  *string           `json:"failure_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the entry is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccessful || t.Status == TransactionStatusFailed
}

// CanTransitionTo reports whether the entry may move to next.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	return t.Status == TransactionStatusPending &&
		(next == TransactionStatusSuccessful || next == TransactionStatusFailed)
}

// InvolvesOwner reports whether ownerID is on either side of the entry.
func (t *Transaction) InvolvesOwner(ownerID uuid.UUID) bool {
	return (t.FromOwnerID != nil && *t.FromOwnerID == ownerID) ||
		(t.ToOwnerID != nil && *t.ToOwnerID == ownerID)
}

// Reference returns the external reference or "".
func (t *Transaction) Reference() string {
	if t.ExternalRef == nil {
		return ""
	}
	return *t.ExternalRef
}

// TransactionFilter narrows a journal listing.
type TransactionFilter struct {
	OwnerID  uuid.UUID
	Type     *TransactionType
	Status   *TransactionStatus
	Currency string
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps paging values and upper-cases the currency.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Currency = NormalizeCurrency(f.Currency)
	return f
}

// Offset returns the row offset for the current page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Matches applies the filter in memory.
func (f TransactionFilter) Matches(t *Transaction) bool {
	if !t.InvolvesOwner(f.OwnerID) {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Currency != "" && t.DebitCurrency != f.Currency && t.CreditCurrency != f.Currency {
		return false
	}
	return true
}
