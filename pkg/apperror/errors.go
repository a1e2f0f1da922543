package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Retryable tells the caller whether repeating the same request may succeed.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"retryable"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code so callers can use errors.Is against a
// freshly built error value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithCause returns a copy of e carrying err as its cause.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func retryable(e *AppError) *AppError {
	e.Retryable = true
	return e
}

// As extracts an *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Retryable
}

// ---- Ledger (LED) ----

func ErrInvalidRequest(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New("LED_002", "Wallet not found", http.StatusNotFound)
}

func ErrInsufficientFunds() *AppError {
	return New("LED_003", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrConversionUnavailable(err error) *AppError {
	return Wrap("LED_004", "Exchange rate unavailable", http.StatusBadGateway, err)
}

func ErrDuplicateReference() *AppError {
	return New("LED_005", "External reference already processed", http.StatusConflict)
}

func ErrConflict(err error) *AppError {
	return retryable(Wrap("LED_006", "Concurrent update conflict, retry the request", http.StatusConflict, err))
}

func ErrDepositRejected(reason string) *AppError {
	return New("LED_007", "Deposit rejected: "+reason, http.StatusUnprocessableEntity)
}

func ErrGatewayUnavailable(err error) *AppError {
	return retryable(Wrap("LED_008", "Payment gateway unavailable", http.StatusBadGateway, err))
}

func ErrWalletExists() *AppError {
	return New("LED_009", "Wallet already exists for this currency", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_010", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Security & Authentication ----

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return retryable(New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests))
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStorageFailure marks a persistence failure. The operation had no effect
// and may be retried.
func ErrStorageFailure(err error) *AppError {
	return retryable(Wrap("SYS_002", "Storage temporarily unavailable", http.StatusServiceUnavailable, err))
}

// Validation is shorthand for ErrInvalidRequest.
func Validation(message string) *AppError {
	return ErrInvalidRequest(message)
}
