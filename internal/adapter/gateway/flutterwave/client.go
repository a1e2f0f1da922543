// Package flutterwave is the hosted-payment gateway client.
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PaymentGateway.
type Client struct {
	baseURL     string
	secretKey   string
	redirectURL string
	timeout     time.Duration
	httpClient  HTTPClient
	log         zerolog.Logger
}

// NewClient creates a gateway client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		redirectURL: cfg.RedirectURL,
		timeout:     cfg.Timeout,
		httpClient:  httpClient,
		log:         log.With().Str("component", "flutterwave").Logger(),
	}
}

type customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type paymentRequest struct {
	TxRef          string          `json:"tx_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	RedirectURL    string          `json:"redirect_url,omitempty"`
	Customer       customer        `json:"customer"`
	Customizations customizations  `json:"customizations"`
}

type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		Link   string `json:"link"`
		FlwRef string `json:"flw_ref"`
	} `json:"data"`
}

type validateRequest struct {
	OTP    string `json:"otp"`
	FlwRef string `json:"flw_ref"`
}

type validateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		TxRef    string              `json:"tx_ref"`
		FlwRef   string              `json:"flw_ref"`
		Amount   decimal.NullDecimal `json:"amount"`
		Currency string              `json:"currency"`
		Status   string              `json:"status"`
	} `json:"data"`
}

// InitiateCharge creates a hosted payment and returns its link.
func (c *Client) InitiateCharge(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
	body := paymentRequest{
		TxRef:       req.TxRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: c.redirectURL,
		Customer:    customer{Email: req.CustomerEmail, Name: req.CustomerName},
		Customizations: customizations{
			Title:       "Deposit",
			Description: "Deposit funds to your wallet",
		},
	}

	var out paymentResponse
	status, err := c.post(ctx, "/payments", body, &out)
	if err != nil {
		return nil, fmt.Errorf("initiate charge %s: %w: %w", req.TxRef, domain.ErrGatewayUnavailable, err)
	}
	if status < 200 || status > 299 || out.Status != "success" || out.Data == nil || out.Data.Link == "" {
		c.log.Error().Int("status", status).Str("tx_ref", req.TxRef).Str("message", out.Message).Msg("Hosted payment rejected")
		return nil, fmt.Errorf("initiate charge %s: status %d %q: %w", req.TxRef, status, out.Message, domain.ErrGatewayUnavailable)
	}

	return &ports.ChargeResult{PaymentLink: out.Data.Link, ProviderRef: out.Data.FlwRef}, nil
}

// ValidateCharge submits an OTP. A 4xx answer is a rejection, not an error;
// transport failures and 5xx wrap domain.ErrGatewayUnavailable.
func (c *Client) ValidateCharge(ctx context.Context, providerRef, otp string) (*ports.ChargeValidation, error) {
	var out validateResponse
	status, err := c.post(ctx, "/validate-charge", validateRequest{OTP: otp, FlwRef: providerRef}, &out)
	if err != nil && status < 400 {
		return nil, fmt.Errorf("validate charge %s: %w: %w", providerRef, domain.ErrGatewayUnavailable, err)
	}
	if status >= 500 {
		return nil, fmt.Errorf("validate charge %s: status %d: %w", providerRef, status, domain.ErrGatewayUnavailable)
	}

	result := &ports.ChargeValidation{Message: out.Message}
	if out.Data != nil {
		result.ProviderStatus = out.Data.Status
		result.TxRef = out.Data.TxRef
		result.Currency = domain.NormalizeCurrency(out.Data.Currency)
		if out.Data.Amount.Valid {
			result.Amount = out.Data.Amount.Decimal
		}
	}
	result.Successful = status < 300 && out.Status == "success" && result.ProviderStatus == "successful"
	return result, nil
}

// post sends a JSON body and decodes the JSON answer. The status code is
// returned whenever a response arrived, even if its body did not decode.
func (c *Client) post(ctx context.Context, path string, in, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
