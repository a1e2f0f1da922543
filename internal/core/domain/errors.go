package domain

import "errors"

// Storage-level sentinels. Adapters wrap these with fmt.Errorf("...: %w").
var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrWalletExists            = errors.New("wallet already exists")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrConcurrencyConflict     = errors.New("concurrent modification")
	ErrDuplicateReference      = errors.New("external reference already recorded")
	ErrInvalidStatusTransition = errors.New("invalid journal status transition")
	ErrRateUnavailable         = errors.New("exchange rate unavailable")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrInvalidEntry            = errors.New("invalid journal entry")
)
