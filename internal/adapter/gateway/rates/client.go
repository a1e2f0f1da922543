// Package rates fetches exchange rates from a Flutterwave-compatible
// /transfers/rates endpoint.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.RateProvider.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a rate client. A nil httpClient uses http.DefaultClient;
// each lookup is bounded by cfg.Timeout through its context.
func NewClient(cfg config.RatesConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		httpClient: httpClient,
		log:        log.With().Str("component", "rates").Logger(),
	}
}

type ratesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		Rate decimal.NullDecimal `json:"rate"`
	} `json:"data"`
}

// errTransport marks failures worth retrying.
var errTransport = errors.New("transport")

// Rate returns how many units of to one unit of from buys. Every failure
// wraps domain.ErrRateUnavailable.
func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = domain.NormalizeCurrency(from), domain.NormalizeCurrency(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		rate, err := c.fetch(ctx, from, to)
		if err == nil {
			return rate, nil
		}
		lastErr = err
		if !errors.Is(err, errTransport) || ctx.Err() != nil {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Str("from", from).Str("to", to).Msg("Rate lookup failed, retrying")
	}

	c.log.Error().Err(lastErr).Str("from", from).Str("to", to).Msg("Rate unavailable")
	return decimal.Zero, fmt.Errorf("rate %s->%s: %w: %w", from, to, domain.ErrRateUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("amount", "1")
	q.Set("source_currency", from)
	q.Set("destination_currency", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transfers/rates?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", errTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}
	if out.Data == nil || !out.Data.Rate.Valid {
		return decimal.Zero, fmt.Errorf("response carries no rate (status %q)", out.Status)
	}
	if !out.Data.Rate.Decimal.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s", out.Data.Rate.Decimal)
	}
	return out.Data.Rate.Decimal, nil
}
