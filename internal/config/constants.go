package config

import "time"

const (
	// Default posting fee when no Stripe price is configured
	DefaultPostingFeeAmount   = 100
	DefaultPostingFeeCurrency = "usd"

	// Payment intent metadata
	PaymentPurposeTaskPosting = "task_posting_fee"
	MetadataKeyUserID         = "user_id"
	MetadataKeyPurpose        = "purpose"
	MetadataKeyPriceID        = "price_id"

	PaymentDescription = "LobsterWork Task Posting Fee"

	// Fee config cache entries (one per price reference)
	FeeCacheSize = 8

	// Request body limits
	MaxBodyBytes        = 1 << 20
	MaxWebhookBodyBytes = 1 << 20

	// Database pool
	DBMaxConns = 20
	DBMinConns = 2

	// Reconciler batch size per pass
	ReconcileBatchSize = 50

	// HTTP server timeouts
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second

	// Browser preflight cache
	CORSMaxAge = 12 * time.Hour

	// Task listing
	TaskExcerptLen  = 280
	DefaultPageSize = 50
	MaxPageSize     = 200

	// Review rating bounds
	MinRating = 1
	MaxRating = 5

	// Telegram limits
	MaxTelegramMessageLen = 4096
	TelegramSendTimeout   = 10 * time.Second
)
