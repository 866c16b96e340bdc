package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeGateway talks to the Stripe API. Network retries use the stripe-go
// backend policy.
type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway builds a gateway. Pass nil backends for the live API.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) RetrievePrice(ctx context.Context, id string) (*domain.Price, error) {
	p, err := g.sc.Prices.Get(id, &stripe.PriceParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, mapStripeError(err, "retrieve price", domain.ErrConfiguration)
	}

	price := &domain.Price{
		ID:       p.ID,
		Active:   p.Active,
		OneTime:  p.Type == stripe.PriceTypeOneTime,
		Currency: string(p.Currency),
	}
	price.UnitAmount = unitAmount(p)
	return price, nil
}

// unitAmount tells an explicit zero apart from a null unit_amount, which
// stripe-go decodes to the same int64.
func unitAmount(p *stripe.Price) *int64 {
	if p.LastResponse != nil && len(p.LastResponse.RawJSON) > 0 {
		var raw struct {
			UnitAmount *int64 `json:"unit_amount"`
		}
		if err := json.Unmarshal(p.LastResponse.RawJSON, &raw); err == nil {
			return raw.UnitAmount
		}
	}
	if p.BillingScheme == stripe.PriceBillingSchemeTiered || p.CustomUnitAmount != nil {
		return nil
	}
	amount := p.UnitAmount
	return &amount
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err, "create payment intent", domain.ErrUpstream)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	pi, err := g.sc.PaymentIntents.Get(id, &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, mapStripeError(err, "retrieve payment intent", domain.ErrPaymentIntentNotFound)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, id string) error {
	_, err := g.sc.PaymentIntents.Cancel(id, &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return mapStripeError(err, "cancel payment intent", domain.ErrPaymentIntentNotFound)
	}
	return nil
}

func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       domain.IntentStatus(pi.Status),
		Metadata:     pi.Metadata,
		ClientSecret: pi.ClientSecret,
	}
}

// mapStripeError turns a missing resource into notFound and everything else
// into ErrUpstream.
func mapStripeError(err error, op string, notFound error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%s: %w: %s", op, notFound, se.Msg)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstream, err)
}
