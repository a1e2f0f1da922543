package middleware

import (
	"fmt"
	"strconv"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Endpoint groups with their own counters.
const (
	GroupLedgerRead  = "ledger_read"
	GroupLedgerWrite = "ledger_write"
	GroupDeposits    = "deposits"
	GroupWebhooks    = "webhooks"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules derives per-group limits from the write limit.
// Reads get twice the budget, hosted deposits a third and provider webhooks five times.
func DefaultRateLimitRules(write RateLimitRule) map[string]RateLimitRule {
	if write.Limit <= 0 {
		write.Limit = 60
	}
	if write.Window <= 0 {
		write.Window = time.Minute
	}
	deposits := write.Limit / 3
	if deposits < 1 {
		deposits = 1
	}
	return map[string]RateLimitRule{
		GroupLedgerRead:  {Limit: write.Limit * 2, Window: write.Window},
		GroupLedgerWrite: write,
		GroupDeposits:    {Limit: deposits, Window: write.Window},
		GroupWebhooks:    {Limit: write.Limit * 5, Window: write.Window},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// Store failures let the request through.
func RateLimiter(store ports.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated callers by user and everyone else by IP.
func extractIdentifier(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
