package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Outbound ports ---

// RateProvider converts between currencies. Rate returns how many units of
// to one unit of from buys.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// PaymentGateway is the hosted-payment provider.
type PaymentGateway interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	ValidateCharge(ctx context.Context, providerRef, otp string) (*ChargeValidation, error)
}

// ChargeRequest describes a hosted payment to create.
type ChargeRequest struct {
	TxRef         string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// ChargeResult is the provider's answer to InitiateCharge.
type ChargeResult struct {
	PaymentLink string
	ProviderRef string
}

// ChargeValidation is the provider's answer to ValidateCharge.
type ChargeValidation struct {
	Successful     bool
	ProviderStatus string
	TxRef          string
	Amount         decimal.Decimal
	Currency       string
	Message        string
}

// ReplayCache is the fast-path store of already reconciled webhook results.
type ReplayCache interface {
	Get(ctx context.Context, ref string) ([]byte, error) // nil on miss
	Set(ctx context.Context, ref string, value []byte, ttl time.Duration) error
}

// DepositIntentStore holds pending deposit intents until confirmation.
type DepositIntentStore interface {
	Save(ctx context.Context, intent *domain.DepositIntent, ttl time.Duration) error
	Get(ctx context.Context, ref string) (*domain.DepositIntent, error) // nil on miss
	Delete(ctx context.Context, ref string) error
}

// RateLimitStore counts requests in a fixed window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// WebhookVerifier authenticates inbound provider webhooks.
type WebhookVerifier interface {
	Verify(rawBody []byte, signature string) bool
}

// TokenService handles JWT bearer tokens issued for ledger users.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// AuditService records audit entries without blocking the request.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service ports ---

// LedgerService moves money between wallets.
type LedgerService interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error)
	ListWallets(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	Deposit(ctx context.Context, req MovementRequest) (*LedgerResult, error)
	Withdraw(ctx context.Context, req MovementRequest) (*LedgerResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*LedgerResult, error)
	Convert(ctx context.Context, req ConvertRequest) (*LedgerResult, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
}

// MovementRequest is a single-wallet deposit or withdrawal.
type MovementRequest struct {
	OwnerID     uuid.UUID
	Currency    string
	Amount      decimal.Decimal
	ExternalRef string
}

// TransferRequest moves funds to another user, converting when currencies differ.
// An empty DestCurrency selects the recipient's wallet in SourceCurrency if one
// exists, otherwise the recipient's home currency.
type TransferRequest struct {
	SenderID       uuid.UUID
	RecipientID    uuid.UUID
	SourceCurrency string
	DestCurrency   string
	Amount         decimal.Decimal
	ExternalRef    string
}

// ConvertRequest moves funds between two of the same owner's wallets.
type ConvertRequest struct {
	OwnerID      uuid.UUID
	FromCurrency string
	ToCurrency   string
	Amount       decimal.Decimal
}

// LedgerResult is the committed outcome of one engine operation.
type LedgerResult struct {
	Transaction *domain.Transaction
	Source      *domain.Wallet
	Destination *domain.Wallet
	Replayed    bool
}

// DepositService reconciles provider confirmations into wallet credits.
type DepositService interface {
	InitiateDeposit(ctx context.Context, req InitiateDepositRequest) (*domain.DepositIntent, error)
	ReconcileWebhook(ctx context.Context, rawBody []byte, signature string) (*ReconcileResult, error)
	ConfirmDepositOTP(ctx context.Context, req ConfirmOTPRequest) (*LedgerResult, error)
	ListDeposits(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error)
}

// InitiateDepositRequest starts a hosted deposit.
type InitiateDepositRequest struct {
	OwnerID  uuid.UUID
	Currency string
	Amount   decimal.Decimal
}

// ConfirmOTPRequest completes a deposit that needs an OTP. ProviderRef is the
// provider's flw_ref; the stored intent's reference is used when empty.
type ConfirmOTPRequest struct {
	OwnerID     uuid.UUID
	ExternalRef string
	ProviderRef string
	OTP         string
	Amount      decimal.Decimal
}

// ReconcileOutcome says what a webhook delivery did.
type ReconcileOutcome string

const (
	OutcomeCredited ReconcileOutcome = "credited"
	OutcomeReplayed ReconcileOutcome = "replayed"
	OutcomeIgnored  ReconcileOutcome = "ignored"
	OutcomeFailed   ReconcileOutcome = "marked_failed"
)

// ReconcileResult is returned to the webhook handler.
type ReconcileResult struct {
	Outcome     ReconcileOutcome
	ExternalRef string
	Transaction *domain.Transaction
}
