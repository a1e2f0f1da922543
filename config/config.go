package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Deposit  DepositConfig  `mapstructure:"deposit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	RateLimit       int64         `mapstructure:"rate_limit"`
	RateWindow      time.Duration `mapstructure:"rate_window"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type StorageConfig struct {
	Driver string     `mapstructure:"driver"` // postgres, memory
	Users  []SeedUser `mapstructure:"users"`  // memory driver only
}

// SeedUser is a user known to the memory driver's directory.
type SeedUser struct {
	ID           string `mapstructure:"id"`
	Email        string `mapstructure:"email"`
	Name         string `mapstructure:"name"`
	HomeCurrency string `mapstructure:"home_currency"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LedgerConfig tunes the transfer orchestrator.
type LedgerConfig struct {
	FeeRate    string `mapstructure:"fee_rate"` // decimal fraction, "0.015" = 1.5%
	MaxRetries int    `mapstructure:"max_retries"`
	Scale      int32  `mapstructure:"scale"` // decimal places kept on converted amounts
}

// Fee parses FeeRate.
func (l LedgerConfig) Fee() (decimal.Decimal, error) {
	if strings.TrimSpace(l.FeeRate) == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(l.FeeRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger.fee_rate: %w", err)
	}
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("ledger.fee_rate must be in [0, 1), got %s", l.FeeRate)
	}
	return fee, nil
}

type RatesConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	SecretKey   string        `mapstructure:"secret_key"`
	RedirectURL string        `mapstructure:"redirect_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type WebhookConfig struct {
	SecretHash string        `mapstructure:"secret_hash"`
	Mode       string        `mapstructure:"mode"` // hash, hmac
	ReplayTTL  time.Duration `mapstructure:"replay_ttl"`
}

type DepositConfig struct {
	IntentTTL time.Duration `mapstructure:"intent_ttl"`
}

// MaxLedgerScale is the fractional precision of the amount columns,
// NUMERIC(38, 8).
const MaxLedgerScale = 8

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver))
	}
	if _, err := c.Ledger.Fee(); err != nil {
		errs = append(errs, err)
	}
	if c.Ledger.MaxRetries < 0 {
		errs = append(errs, errors.New("ledger.max_retries must not be negative"))
	}
	if c.Ledger.Scale < 0 || c.Ledger.Scale > MaxLedgerScale {
		errs = append(errs, fmt.Errorf("ledger.scale must be between 0 and %d, got %d", MaxLedgerScale, c.Ledger.Scale))
	}
	if c.Webhook.Mode != "hash" && c.Webhook.Mode != "hmac" {
		errs = append(errs, fmt.Errorf("webhook.mode must be hash or hmac, got %q", c.Webhook.Mode))
	}
	return errors.Join(errs...)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WLG_.
// Nested keys use underscore: WLG_DATABASE_HOST, WLG_LEDGER_FEE_RATE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("WLG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_window", "1m")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wallet_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "wallet-ledger")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("ledger.fee_rate", "0")
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.scale", 8)

	v.SetDefault("rates.base_url", "https://api.flutterwave.com/v3")
	v.SetDefault("rates.api_key", "")
	v.SetDefault("rates.timeout", "5s")
	v.SetDefault("rates.max_retries", 0)

	v.SetDefault("gateway.base_url", "https://api.flutterwave.com/v3")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.redirect_url", "")
	v.SetDefault("gateway.timeout", "10s")

	v.SetDefault("webhook.secret_hash", "")
	v.SetDefault("webhook.mode", "hash")
	v.SetDefault("webhook.replay_ttl", "24h")

	v.SetDefault("deposit.intent_ttl", "1h")
}
