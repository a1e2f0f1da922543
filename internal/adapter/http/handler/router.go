package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger         ports.LedgerService
	Deposits       ports.DepositService
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	RateLimit      middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService  // nil = audit logging disabled
	Metrics        prometheus.Gatherer // nil = no /metrics endpoint
	MaxBodyBytes   int64
	Mode           string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	rules := middleware.DefaultRateLimitRules(deps.RateLimit)
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Provider webhooks (signature-authenticated) ---
	depositHandler := NewDepositHandler(deps.Deposits, deps.Logger)
	v1.POST("/webhooks/flutterwave", rl(middleware.GroupWebhooks), depositHandler.Webhook)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.Ledger)
	transferHandler := NewTransferHandler(deps.Ledger)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.POST("", rl(middleware.GroupLedgerWrite), walletHandler.Create)
		wallets.GET("", rl(middleware.GroupLedgerRead), walletHandler.List)
		wallets.POST("/deposit", rl(middleware.GroupLedgerWrite), walletHandler.Deposit)
		wallets.POST("/withdraw", rl(middleware.GroupLedgerWrite), walletHandler.Withdraw)
	}

	v1.POST("/transfers", jwtAuth, rl(middleware.GroupLedgerWrite), transferHandler.Transfer)
	v1.POST("/conversions", jwtAuth, rl(middleware.GroupLedgerWrite), transferHandler.Convert)
	v1.GET("/transactions", jwtAuth, rl(middleware.GroupLedgerRead), transferHandler.ListTransactions)

	deposits := v1.Group("/deposits", jwtAuth)
	{
		deposits.POST("", rl(middleware.GroupDeposits), depositHandler.Initiate)
		deposits.GET("", rl(middleware.GroupLedgerRead), depositHandler.List)
		deposits.POST("/confirm-otp", rl(middleware.GroupDeposits), depositHandler.ConfirmOTP)
	}

	return r
}
