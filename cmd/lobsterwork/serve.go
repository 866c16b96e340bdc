package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/auth"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/handler"
	"github.com/lobsterwork/lobsterwork/internal/metrics"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
	"github.com/lobsterwork/lobsterwork/internal/payments"
	"github.com/lobsterwork/lobsterwork/internal/repository"
	"github.com/lobsterwork/lobsterwork/internal/service"
	"github.com/lobsterwork/lobsterwork/internal/telegram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg); err != nil {
		return err
	}

	queries := repository.New(pool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNewMetrics(reg)

	notifier := newNotifier(cfg)
	defer notifier.Wait()

	// Payment provider and posting fee
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, nil)
	fees := service.NewFeeResolver(gateway, func() string { return cfg.TaskPostingPriceID }, m)

	// Initialize services
	profileService := service.NewProfileService(pool, queries)
	paymentService := service.NewPaymentService(pool, queries, gateway, fees, notifier, m, cfg)
	taskService := service.NewTaskService(pool, queries, gateway, fees, notifier, m, cfg)
	bidService := service.NewBidService(pool, queries, cfg)
	reviewService := service.NewReviewService(pool, queries)
	reconciler := service.NewReconciler(queries, gateway, notifier, m, cfg)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.AuthCookieName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// Client IPs come from X-Forwarded-For only when the peer is a listed proxy
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(
		middleware.Recover(notifier),
		middleware.Logging(),
		middleware.Metrics(m),
	)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           config.CORSMaxAge,
		}))
	}
	r.Use(middleware.UserLoader(verifier, profileService))

	h := handler.New(handler.Deps{
		Cfg:            cfg,
		PaymentService: paymentService,
		Webhooks:       payments.NewWebhookVerifier(cfg.StripeWebhookKey),
		TaskService:    taskService,
		BidService:     bidService,
		ReviewService:  reviewService,
		ProfileService: profileService,
		Reporter:       notifier,
		DB:             pool,
		RateLimit:      middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	})
	h.Register(r, reg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go reconciler.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", srv.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// newNotifier returns nil when Telegram delivery is not configured. All
// *telegram.Notifier methods accept a nil receiver.
func newNotifier(cfg *config.Config) *telegram.Notifier {
	if !cfg.TelegramEnabled() {
		return nil
	}
	b, err := telegram.NewBot(cfg.TelegramBotToken)
	if err != nil {
		slog.Warn("telegram notifications disabled", "error", err)
		return nil
	}
	return telegram.NewNotifier(b, cfg)
}
