package dto

import (
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Amounts bind from JSON strings or numbers into decimal.Decimal without a
// float round trip.

// CreateWalletRequest is the request body for opening a wallet.
type CreateWalletRequest struct {
	Currency string `json:"currency" binding:"required,currency"`
}

// MovementRequest is the request body for a deposit or withdrawal.
type MovementRequest struct {
	Currency  string          `json:"currency" binding:"required,currency"`
	Amount    decimal.Decimal `json:"amount" binding:"amount"`
	Reference string          `json:"reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// TransferRequest is the request body for a transfer to another user.
type TransferRequest struct {
	RecipientID         string          `json:"recipient_id" binding:"required,uuid"`
	SourceCurrency      string          `json:"source_currency" binding:"required,currency"`
	DestinationCurrency string          `json:"destination_currency,omitempty" binding:"omitempty,currency"`
	Amount              decimal.Decimal `json:"amount" binding:"amount"`
	Reference           string          `json:"reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// ConvertRequest is the request body for a conversion between own wallets.
type ConvertRequest struct {
	FromCurrency string          `json:"from_currency" binding:"required,currency"`
	ToCurrency   string          `json:"to_currency" binding:"required,currency"`
	Amount       decimal.Decimal `json:"amount" binding:"amount"`
}

// InitiateDepositRequest is the request body for a hosted deposit.
type InitiateDepositRequest struct {
	Currency string          `json:"currency" binding:"required,currency"`
	Amount   decimal.Decimal `json:"amount" binding:"amount"`
}

// ConfirmOTPRequest is the request body for completing a deposit with an OTP.
type ConfirmOTPRequest struct {
	Reference   string          `json:"reference" binding:"required,max=100,safe_id"`
	ProviderRef string          `json:"flw_ref,omitempty" binding:"omitempty,max=100,safe_id"`
	OTP         string          `json:"otp" binding:"required,numeric,min=4,max=10"`
	Amount      decimal.Decimal `json:"amount" binding:"amount"`
}

// TransactionQuery holds the journal listing filters.
type TransactionQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=DEPOSIT WITHDRAW TRANSFER CONVERSION"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING SUCCESSFUL FAILED"`
	Currency string `form:"currency" binding:"omitempty,currency"`
}

// WalletResponse is one wallet balance.
type WalletResponse struct {
	ID        string          `json:"id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// TransactionResponse is one journal entry.
type TransactionResponse struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	Status         string           `json:"status"`
	DebitAmount    decimal.Decimal  `json:"debit_amount"`
	DebitCurrency  string           `json:"debit_currency"`
	CreditAmount   decimal.Decimal  `json:"credit_amount"`
	CreditCurrency string           `json:"credit_currency"`
	Fee            decimal.Decimal  `json:"fee"`
	Rate           *decimal.Decimal `json:"rate,omitempty"`
	FromWalletID   *string          `json:"from_wallet_id,omitempty"`
	ToWalletID     *string          `json:"to_wallet_id,omitempty"`
	Reference      *string          `json:"reference,omitempty"`
	FailureReason  *string          `json:"failure_reason,omitempty"`
	CreatedAt      string           `json:"created_at"`
	ProcessedAt    *string          `json:"processed_at,omitempty"`
}

// LedgerResultResponse is the outcome of a money movement.
type LedgerResultResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Source      *WalletResponse     `json:"source,omitempty"`
	Destination *WalletResponse     `json:"destination,omitempty"`
	Replayed    bool                `json:"replayed"`
}

// DepositIntentResponse is returned when a hosted deposit starts.
type DepositIntentResponse struct {
	Reference   string          `json:"reference"`
	PaymentLink string          `json:"payment_link"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
}

// WebhookAckResponse acknowledges a provider delivery.
type WebhookAckResponse struct {
	Outcome   string `json:"outcome"`
	Reference string `json:"reference,omitempty"`
}

// NewWalletResponse converts a domain wallet.
func NewWalletResponse(w *domain.Wallet) *WalletResponse {
	if w == nil {
		return nil
	}
	return &WalletResponse{
		ID:        w.ID.String(),
		Currency:  w.Currency,
		Balance:   w.Balance,
		Version:   w.Version,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewWalletListResponse converts a slice of wallets.
func NewWalletListResponse(wallets []domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		out = append(out, *NewWalletResponse(&wallets[i]))
	}
	return out
}

// NewTransactionResponse converts a journal entry.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:             t.ID.String(),
		Type:           string(t.Type),
		Status:         string(t.Status),
		DebitAmount:    t.DebitAmount,
		DebitCurrency:  t.DebitCurrency,
		CreditAmount:   t.CreditAmount,
		CreditCurrency: t.CreditCurrency,
		Fee:            t.FeeAmount,
		Rate:           t.Rate,
		Reference:      t.ExternalRef,
		FailureReason:  t.FailureReason,
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.FromWalletID != nil {
		s := t.FromWalletID.String()
		resp.FromWalletID = &s
	}
	if t.ToWalletID != nil {
		s := t.ToWalletID.String()
		resp.ToWalletID = &s
	}
	if t.ProcessedAt != nil {
		s := t.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

// NewTransactionListResponse converts a page of journal entries.
func NewTransactionListResponse(items []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTransactionResponse(&items[i]))
	}
	return out
}

// NewLedgerResultResponse converts an engine result.
func NewLedgerResultResponse(r *ports.LedgerResult) LedgerResultResponse {
	return LedgerResultResponse{
		Transaction: NewTransactionResponse(r.Transaction),
		Source:      NewWalletResponse(r.Source),
		Destination: NewWalletResponse(r.Destination),
		Replayed:    r.Replayed,
	}
}

// NewDepositIntentResponse converts a deposit intent.
func NewDepositIntentResponse(i *domain.DepositIntent) DepositIntentResponse {
	return DepositIntentResponse{
		Reference:   i.ExternalRef,
		PaymentLink: i.PaymentLink,
		Amount:      i.Amount,
		Currency:    i.Currency,
		Status:      string(domain.TransactionStatusPending),
	}
}
