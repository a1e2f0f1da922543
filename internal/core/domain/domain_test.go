package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"successful", TransactionStatusSuccessful, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestTransaction_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{"pending to successful", TransactionStatusPending, TransactionStatusSuccessful, true},
		{"pending to failed", TransactionStatusPending, TransactionStatusFailed, true},
		{"pending to pending", TransactionStatusPending, TransactionStatusPending, false},
		{"successful to failed", TransactionStatusSuccessful, TransactionStatusFailed, false},
		{"failed to successful", TransactionStatusFailed, TransactionStatusSuccessful, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.from}
			assert.Equal(t, tt.want, tx.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionFilter_Normalize(t *testing.T) {
	f := TransactionFilter{Page: 0, PageSize: 1000, Currency: " ngn "}.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, "NGN", f.Currency)
	assert.Equal(t, 0, f.Offset())

	f = TransactionFilter{Page: 3, PageSize: 0}.Normalize()
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, 2*DefaultPageSize, f.Offset())
}

func TestTransactionFilter_Matches(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	transfer := TransactionTypeTransfer
	deposit := TransactionTypeDeposit
	failed := TransactionStatusFailed

	tx := &Transaction{
		Type:           TransactionTypeTransfer,
		FromOwnerID:    &alice,
		ToOwnerID:      &bob,
		DebitCurrency:  "NGN",
		CreditCurrency: "USD",
		Status:         TransactionStatusSuccessful,
	}

	assert.True(t, TransactionFilter{OwnerID: alice}.Matches(tx))
	assert.True(t, TransactionFilter{OwnerID: bob, Currency: "USD"}.Matches(tx))
	assert.True(t, TransactionFilter{OwnerID: bob, Type: &transfer}.Matches(tx))
	assert.False(t, TransactionFilter{OwnerID: uuid.New()}.Matches(tx))
	assert.False(t, TransactionFilter{OwnerID: alice, Type: &deposit}.Matches(tx))
	assert.False(t, TransactionFilter{OwnerID: alice, Status: &failed}.Matches(tx))
	assert.False(t, TransactionFilter{OwnerID: alice, Currency: "EUR"}.Matches(tx))
}

func TestNewWallet_NormalizesCurrency(t *testing.T) {
	owner := uuid.New()
	w := NewWallet(owner, " usd")

	assert.Equal(t, "USD", w.Currency)
	assert.Equal(t, owner, w.OwnerID)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, int64(0), w.Version)
	assert.NotEqual(t, uuid.Nil, w.ID)
}

func TestWallet_Covers(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(100)}

	assert.True(t, w.Covers(decimal.NewFromInt(100)))
	assert.True(t, w.Covers(decimal.RequireFromString("99.99")))
	assert.False(t, w.Covers(decimal.RequireFromString("100.01")))
}

func TestNewDepositReference(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	ref := NewDepositReference(now)

	assert.True(t, strings.HasPrefix(ref, "dep_1700000000123_"))
	assert.NotEqual(t, ref, NewDepositReference(now))
	assert.True(t, IsDepositReference(ref))
	assert.False(t, IsDepositReference("order-42"))
}

func TestTransaction_IsProviderDeposit(t *testing.T) {
	owner, wallet := uuid.New(), uuid.New()
	ref, clientRef := "dep_1700000000123_ab12cd34", "order-42"

	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{"provider deposit", Transaction{Type: TransactionTypeDeposit, ToOwnerID: &owner, ExternalRef: &ref}, true},
		{"client reference", Transaction{Type: TransactionTypeDeposit, ToOwnerID: &owner, ExternalRef: &clientRef}, false},
		{"transfer", Transaction{Type: TransactionTypeTransfer, FromWalletID: &wallet, ToOwnerID: &owner, ExternalRef: &ref}, false},
		{"withdrawal", Transaction{Type: TransactionTypeWithdraw, ExternalRef: &ref}, false},
		{"no reference", Transaction{Type: TransactionTypeDeposit, ToOwnerID: &owner}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.IsProviderDeposit())
		})
	}
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TransactionTypeConversion.Valid())
	assert.False(t, TransactionType("REFUND").Valid())
	assert.True(t, TransactionStatusFailed.Valid())
	assert.False(t, TransactionStatus("REVERSED").Valid())
}
