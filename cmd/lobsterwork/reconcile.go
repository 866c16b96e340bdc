package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lobsterwork/lobsterwork/internal/payments"
	"github.com/lobsterwork/lobsterwork/internal/repository"
	"github.com/lobsterwork/lobsterwork/internal/service"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Settle stale pending payments once and exit",
		Long: `Ask Stripe for the current status of posting-fee payments that are still
pending after RECONCILE_STALE_AFTER and record the ones that succeeded or failed.
Tasks are never created by this command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			notifier := newNotifier(cfg)
			defer notifier.Wait()

			gateway := payments.NewStripeGateway(cfg.StripeSecretKey, nil)
			reconciler := service.NewReconciler(repository.New(pool), gateway, notifier, nil, cfg)

			settled, err := reconciler.ReconcileOnce(ctx)
			if err != nil {
				return err
			}
			slog.Info("reconcile finished", "settled", settled)
			return nil
		},
	}
}
