package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	SerdiPay   SerdiPayConfig
	Withdrawal WithdrawalConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig covers token verification only; access tokens are minted by
// the platform's identity service with the same secret and issuer.
type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

// SerdiPayConfig configures the mobile-money gateway client. Callbacks
// land on WebhookBaseURL + /api/v1/webhooks/payout.
type SerdiPayConfig struct {
	BaseURL        string
	Email          string
	Password       string
	WebhookBaseURL string
}

// WithdrawalConfig carries engine defaults; the live values come from the
// system_settings table and fall back to these.
type WithdrawalConfig struct {
	FeePercentage    float64
	SponsorSharePct  float64
	LedgerCurrency   string
	AdminSeedEmail   string
	AdminSeedPass    string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8095")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")

	v.SetDefault("DB_DSN", "solifin:solifin@tcp(localhost:3306)/solifin?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("JWT_ACCESS_SECRET", "change-me-in-production")
	v.SetDefault("JWT_ISSUER", "solifin")

	v.SetDefault("SERDIPAY_BASE_URL", "https://api.serdipay.com")
	v.SetDefault("SERDIPAY_EMAIL", "")
	v.SetDefault("SERDIPAY_PASSWORD", "")
	v.SetDefault("SERDIPAY_WEBHOOK_BASE_URL", "")

	v.SetDefault("WITHDRAWAL_FEE_PCT", 5.0)
	v.SetDefault("WITHDRAWAL_SPONSOR_SHARE_PCT", 20.0)
	v.SetDefault("LEDGER_CURRENCY", "USD")
	v.SetDefault("ADMIN_SEED_EMAIL", "admin@solifin.local")
	v.SetDefault("ADMIN_SEED_PASSWORD", "")

	readTimeout, err := time.ParseDuration(v.GetString("SERVER_READ_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(v.GetString("SERVER_WRITE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	connLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Env:          v.GetString("SERVER_ENV"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: connLifetime,
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			Issuer:       v.GetString("JWT_ISSUER"),
		},
		SerdiPay: SerdiPayConfig{
			BaseURL:        v.GetString("SERDIPAY_BASE_URL"),
			Email:          v.GetString("SERDIPAY_EMAIL"),
			Password:       v.GetString("SERDIPAY_PASSWORD"),
			WebhookBaseURL: v.GetString("SERDIPAY_WEBHOOK_BASE_URL"),
		},
		Withdrawal: WithdrawalConfig{
			FeePercentage:   v.GetFloat64("WITHDRAWAL_FEE_PCT"),
			SponsorSharePct: v.GetFloat64("WITHDRAWAL_SPONSOR_SHARE_PCT"),
			LedgerCurrency:  v.GetString("LEDGER_CURRENCY"),
			AdminSeedEmail:  v.GetString("ADMIN_SEED_EMAIL"),
			AdminSeedPass:   v.GetString("ADMIN_SEED_PASSWORD"),
		},
	}, nil
}
