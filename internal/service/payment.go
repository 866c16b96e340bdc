package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/metrics"
	"github.com/lobsterwork/lobsterwork/internal/repository"
)

type PaymentService struct {
	db       repository.DB
	queries  *repository.Queries
	gateway  PaymentGateway
	fees     *FeeResolver
	notifier Notifier
	metrics  *metrics.Metrics
	cfg      *config.Config
}

func NewPaymentService(db repository.DB, queries *repository.Queries, gateway PaymentGateway, fees *FeeResolver, notifier Notifier, m *metrics.Metrics, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:       db,
		queries:  queries,
		gateway:  gateway,
		fees:     fees,
		notifier: notifierOrNop(notifier),
		metrics:  m,
		cfg:      cfg,
	}
}

// CreateIntent issues a posting-fee payment intent for user and records a
// pending attempt for it. If the attempt cannot be recorded the intent is
// cancelled and the call fails.
func (s *PaymentService) CreateIntent(ctx context.Context, user *domain.User) (*domain.IssuedIntent, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	fee, err := s.fees.Resolve(ctx)
	if err != nil {
		s.metrics.IntentIssued("fee_error")
		return nil, err
	}

	metadata := map[string]string{
		config.MetadataKeyUserID:  user.ID,
		config.MetadataKeyPurpose: config.PaymentPurposeTaskPosting,
	}
	if fee.PriceID != "" {
		metadata[config.MetadataKeyPriceID] = fee.PriceID
	}

	pi, err := s.gateway.CreateIntent(ctx, domain.IntentRequest{
		Amount:       fee.Amount,
		Currency:     fee.Currency,
		Metadata:     metadata,
		ReceiptEmail: user.Email,
		Description:  config.PaymentDescription,
	})
	if err != nil {
		s.metrics.IntentIssued("provider_error")
		return nil, err
	}

	if _, err := s.queries.UpsertPayment(ctx, repository.UpsertPaymentParams{
		PaymentIntentID: pi.ID,
		UserID:          user.ID,
		Amount:          pi.Amount,
		Status:          string(domain.PaymentStatusPending),
	}); err != nil {
		s.metrics.IntentIssued("persist_error")
		if cancelErr := s.gateway.CancelIntent(context.WithoutCancel(ctx), pi.ID); cancelErr != nil {
			slog.Warn("failed to cancel untracked payment intent", "payment_intent_id", pi.ID, "error", cancelErr)
		}
		return nil, fmt.Errorf("record payment attempt: %w", err)
	}

	s.metrics.IntentIssued("ok")
	slog.Info("payment intent issued", "payment_intent_id", pi.ID, "user_id", user.ID, "amount", pi.Amount)

	return &domain.IssuedIntent{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          fee.Amount,
		Currency:        fee.Currency,
	}, nil
}

// HandleEvent records the outcome of a verified webhook event. Events for
// intents this service did not issue are ignored.
func (s *PaymentService) HandleEvent(ctx context.Context, ev *domain.PaymentEvent) error {
	var status domain.PaymentStatus
	switch ev.Type {
	case domain.EventPaymentIntentSucceeded:
		status = domain.PaymentStatusSucceeded
	case domain.EventPaymentIntentPaymentFailed, domain.EventPaymentIntentCanceled:
		status = domain.PaymentStatusFailed
	default:
		slog.Info("unhandled webhook event type", "event_id", ev.ID, "type", ev.Type)
		s.metrics.WebhookEvent(string(ev.Type), "unhandled")
		return nil
	}

	pi := ev.Intent
	if pi == nil || pi.Metadata[config.MetadataKeyPurpose] != config.PaymentPurposeTaskPosting {
		s.metrics.WebhookEvent(string(ev.Type), "ignored")
		return nil
	}
	userID := pi.Metadata[config.MetadataKeyUserID]
	if userID == "" {
		slog.Warn("payment intent missing user id metadata, skipping", "payment_intent_id", pi.ID)
		s.metrics.WebhookEvent(string(ev.Type), "ignored")
		return nil
	}

	written, err := s.queries.UpsertPayment(ctx, repository.UpsertPaymentParams{
		PaymentIntentID: pi.ID,
		UserID:          userID,
		Amount:          pi.Amount,
		Status:          string(status),
	})
	if err != nil {
		s.metrics.WebhookEvent(string(ev.Type), "error")
		return fmt.Errorf("upsert payment attempt: %w", err)
	}
	if !written {
		// Owned by another user or already turned into a task.
		slog.Info("payment attempt left unchanged", "payment_intent_id", pi.ID, "status", status)
		s.metrics.WebhookEvent(string(ev.Type), "unchanged")
		return nil
	}

	s.metrics.WebhookEvent(string(ev.Type), "recorded")
	slog.Info("payment event recorded", "event_id", ev.ID, "type", ev.Type, "payment_intent_id", pi.ID, "status", status)

	if status == domain.PaymentStatusFailed {
		s.notifier.PaymentFailed(&domain.PaymentAttempt{
			PaymentIntentID: pi.ID,
			UserID:          userID,
			Amount:          pi.Amount,
			Status:          status,
		})
	}
	return nil
}

// GetAttempt reads the caller's own payment attempt through row level security.
func (s *PaymentService) GetAttempt(ctx context.Context, user *domain.User, paymentIntentID string) (*domain.PaymentAttempt, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	var row repository.TaskPostingPayment
	err := repository.WithUserScope(ctx, s.db, user.ID, s.cfg.RLSRole, func(q *repository.Queries) error {
		var err error
		row, err = q.GetPayment(ctx, paymentIntentID)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment attempt: %w", err)
	}
	// Table owners bypass row level security.
	if row.UserID != user.ID {
		return nil, domain.ErrPaymentNotFound
	}
	return rowToPaymentAttempt(row), nil
}
