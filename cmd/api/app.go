package main

import (
	"context"
	"fmt"
	"net/http"

	"wallet-ledger/config"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/adapter/gateway/flutterwave"
	"wallet-ledger/internal/adapter/gateway/rates"
	"wallet-ledger/internal/adapter/storage/memory"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// application is the wired service: the router plus everything that must be
// closed on shutdown.
type application struct {
	router  *gin.Engine
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the persistence half of the wiring, chosen by storage.driver.
type storage struct {
	wallets    ports.WalletRepository
	journal    ports.TransactionRepository
	users      ports.UserDirectory
	transactor ports.DBTransactor
	health     ports.HealthChecker
	audit      ports.AuditRepository
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*application, error) {
	app := &application{}
	fail := func(err error) (*application, error) {
		app.Close()
		return nil, err
	}

	feeRate, err := cfg.Ledger.Fee()
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg, log, app)
	if err != nil {
		return fail(err)
	}
	checkers := []ports.HealthChecker{store.health}

	// Replay cache, intents and rate limiting live in Redis when enabled.
	var (
		replays   ports.ReplayCache        = memory.NewReplayCache()
		intents   ports.DepositIntentStore = memory.NewDepositIntentStore()
		rateStore ports.RateLimitStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		log.Info().Msg("Redis connected")

		replays = redisStorage.NewReplayCache(rdb)
		intents = redisStorage.NewDepositIntentStore(rdb)
		rateStore = redisStorage.NewRateLimitStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled: replay cache and deposit intents are process-local, rate limiting is off")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	rateClient := rates.NewClient(cfg.Rates, &http.Client{Timeout: cfg.Rates.Timeout}, log)
	gatewayClient := flutterwave.NewClient(cfg.Gateway, &http.Client{Timeout: cfg.Gateway.Timeout}, log)
	verifier := service.NewWebhookVerifier(cfg.Webhook.SecretHash, cfg.Webhook.Mode)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	ledgerSvc := service.NewLedgerService(
		store.wallets,
		store.journal,
		store.users,
		rateClient,
		store.transactor,
		service.LedgerOptions{
			FeeRate:    feeRate,
			MaxRetries: cfg.Ledger.MaxRetries,
			Scale:      cfg.Ledger.Scale,
		},
		metrics,
		log,
	)
	depositSvc := service.NewDepositReconciler(
		store.wallets,
		store.journal,
		store.users,
		store.transactor,
		gatewayClient,
		verifier,
		replays,
		intents,
		service.ReconcilerOptions{
			ReplayTTL:  cfg.Webhook.ReplayTTL,
			IntentTTL:  cfg.Deposit.IntentTTL,
			MaxRetries: cfg.Ledger.MaxRetries,
		},
		metrics,
		log,
	)

	var auditSvc ports.AuditService
	if store.audit != nil {
		auditSvc = service.NewAuditService(store.audit, log)
	}

	app.router = httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:         ledgerSvc,
		Deposits:       depositSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateStore,
		RateLimit: middleware.RateLimitRule{
			Limit:  cfg.Server.RateLimit,
			Window: cfg.Server.RateWindow,
		},
		HealthCheckers: checkers,
		AuditSvc:       auditSvc,
		Metrics:        reg,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})
	return app, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, app *application) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		users, err := seedUsers(cfg.Storage.Users)
		if err != nil {
			return nil, err
		}
		st := memory.NewStore()
		log.Warn().Int("users", len(users)).Msg("Using in-memory storage, balances are lost on restart")
		return &storage{
			wallets:    memory.NewWalletRepo(st),
			journal:    memory.NewTransactionRepo(st),
			users:      memory.NewUserDirectory(users...),
			transactor: st,
			health:     st,
		}, nil

	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		log.Info().Msg("PostgreSQL connected")

		if cfg.Database.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool, log); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &storage{
			wallets:    pgStorage.NewWalletRepo(pool),
			journal:    pgStorage.NewTransactionRepo(pool),
			users:      pgStorage.NewUserRepo(pool),
			transactor: pgStorage.NewTransactor(pool),
			health:     pgStorage.NewHealthCheck(pool),
			audit:      pgStorage.NewAuditRepo(pool),
		}, nil
	}
}

func seedUsers(seeds []config.SeedUser) ([]domain.User, error) {
	users := make([]domain.User, 0, len(seeds))
	for _, s := range seeds {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			return nil, fmt.Errorf("storage.users: invalid id %q: %w", s.ID, err)
		}
		users = append(users, domain.User{
			ID:           id,
			Email:        s.Email,
			Name:         s.Name,
			HomeCurrency: s.HomeCurrency,
		})
	}
	return users, nil
}
