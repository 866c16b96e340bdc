package payments

import (
	"encoding/json"
	"fmt"

	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookVerifier checks Stripe-Signature headers and decodes payment intent
// events.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Configured reports whether a signing secret is set.
func (v *WebhookVerifier) Configured() bool {
	return v.secret != ""
}

// Verify returns ErrWebhookNotConfigured when no signing secret is set and
// ErrInvalidSignature when the payload was not signed with it.
func (v *WebhookVerifier) Verify(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if v.secret == "" {
		return nil, domain.ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &domain.PaymentEvent{
		ID:   event.ID,
		Type: domain.PaymentEventType(event.Type),
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:
		if event.Data == nil {
			return nil, fmt.Errorf("event %s has no data", event.ID)
		}
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = toIntent(&pi)
	}

	return out, nil
}
