package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/metrics"
	"github.com/lobsterwork/lobsterwork/internal/repository"
)

// Reconciler settles pending payment attempts whose webhook never arrived by
// asking the provider for the intent's current status.
type Reconciler struct {
	queries    *repository.Queries
	intents    IntentRetriever
	notifier   Notifier
	metrics    *metrics.Metrics
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewReconciler(queries *repository.Queries, intents IntentRetriever, notifier Notifier, m *metrics.Metrics, cfg *config.Config) *Reconciler {
	return &Reconciler{
		queries:    queries,
		intents:    intents,
		notifier:   notifierOrNop(notifier),
		metrics:    m,
		interval:   cfg.ReconcileInterval,
		staleAfter: cfg.ReconcileStaleAfter,
		now:        time.Now,
	}
}

// Run reconciles on every tick until ctx is done. A non-positive interval
// disables the loop.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		slog.Info("payment reconciler disabled")
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				slog.Error("reconcile pending payments", "error", err)
			}
		}
	}
}

// ReconcileOnce processes one batch of stale pending attempts and returns how
// many changed status.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	stale, err := r.queries.ListStalePendingPayments(ctx, r.now().Add(-r.staleAfter), config.ReconcileBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale payments: %w", err)
	}

	settled := 0
	for _, p := range stale {
		status, err := r.resolve(ctx, p.PaymentIntentID)
		if err != nil {
			slog.Warn("failed to check pending payment", "payment_intent_id", p.PaymentIntentID, "error", err)
		}
		if err != nil || status == domain.PaymentStatusPending {
			// Abandoned intents stay pending at the provider indefinitely.
			if err := r.queries.TouchPayment(ctx, p.PaymentIntentID); err != nil {
				return settled, fmt.Errorf("touch payment: %w", err)
			}
			continue
		}

		if err := r.queries.SetPaymentStatus(ctx, p.PaymentIntentID, string(status)); err != nil {
			return settled, fmt.Errorf("set payment status: %w", err)
		}
		settled++
		r.metrics.Reconciled(string(status))
		slog.Info("pending payment reconciled", "payment_intent_id", p.PaymentIntentID, "status", status)

		if status == domain.PaymentStatusFailed {
			attempt := rowToPaymentAttempt(p)
			attempt.Status = status
			r.notifier.PaymentFailed(attempt)
		}
	}
	return settled, nil
}

func (r *Reconciler) resolve(ctx context.Context, paymentIntentID string) (domain.PaymentStatus, error) {
	pi, err := r.intents.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentIntentNotFound) {
			return domain.PaymentStatusFailed, nil
		}
		return "", err
	}
	switch pi.Status {
	case domain.IntentStatusSucceeded:
		return domain.PaymentStatusSucceeded, nil
	case domain.IntentStatusCanceled:
		return domain.PaymentStatusFailed, nil
	}
	return domain.PaymentStatusPending, nil
}
