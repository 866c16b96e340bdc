package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Payment: Stripe
	StripeSecretKey    string `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookKey   string `env:"STRIPE_WEBHOOK_SECRET"`
	TaskPostingPriceID string `env:"STRIPE_TASK_POSTING_PRICE_ID"`

	// Auth: hosted session tokens
	JWTSecret      string `env:"SUPABASE_JWT_SECRET,required"`
	AuthCookieName string `env:"AUTH_COOKIE_NAME" envDefault:"sb-access-token"`
	RLSRole        string `env:"RLS_ROLE" envDefault:"authenticated"`

	// HTTP
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Pending payment reconciliation
	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	ReconcileStaleAfter time.Duration `env:"RECONCILE_STALE_AFTER" envDefault:"15m"`

	// Telegram logging
	TelegramBotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID     int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError         int    `env:"LOG_TOPIC_ERROR"`
	LogTopicTaskPosted    int    `env:"LOG_TOPIC_TASK_POSTED"`
	LogTopicPaymentFailed int    `env:"LOG_TOPIC_PAYMENT_FAILED"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TelegramEnabled reports whether operator notifications can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.LogTelegramChatID != 0
}
