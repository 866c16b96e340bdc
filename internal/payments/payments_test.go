package payments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGateway("sk_test_123", backends)
}

func TestRetrievePrice(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices/price_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"price_123","object":"price","active":true,"type":"one_time","currency":"usd","unit_amount":500}`)
	})

	p, err := g.RetrievePrice(context.Background(), "price_123")
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.True(t, p.OneTime)
	assert.Equal(t, "usd", p.Currency)
	require.NotNil(t, p.UnitAmount)
	assert.Equal(t, int64(500), *p.UnitAmount)
}

func TestRetrievePriceWithoutUnitAmount(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"price_123","object":"price","active":true,"type":"recurring","currency":"usd"}`)
	})

	p, err := g.RetrievePrice(context.Background(), "price_123")
	require.NoError(t, err)
	assert.False(t, p.OneTime)
	assert.Nil(t, p.UnitAmount)
}

func TestRetrievePriceKeepsZeroUnitAmount(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"price_free","object":"price","active":true,"type":"one_time","currency":"usd","billing_scheme":"per_unit","unit_amount":0}`)
	})

	p, err := g.RetrievePrice(context.Background(), "price_free")
	require.NoError(t, err)
	require.NotNil(t, p.UnitAmount)
	assert.Equal(t, int64(0), *p.UnitAmount)
}

func TestRetrievePriceNullUnitAmount(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"price_tiered","object":"price","active":true,"type":"one_time","currency":"usd","billing_scheme":"tiered","unit_amount":null}`)
	})

	p, err := g.RetrievePrice(context.Background(), "price_tiered")
	require.NoError(t, err)
	assert.Nil(t, p.UnitAmount)
}

func TestCreateIntentSendsMetadataAndRestrictsRedirects(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "100", form.Get("amount"))
		assert.Equal(t, "usd", form.Get("currency"))
		assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
		assert.Equal(t, "never", form.Get("automatic_payment_methods[allow_redirects]"))
		assert.Equal(t, "u1", form.Get("metadata[user_id]"))
		assert.Equal(t, "task_posting_fee", form.Get("metadata[purpose]"))
		assert.Equal(t, "a@b.co", form.Get("receipt_email"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_123","object":"payment_intent","amount":100,"currency":"usd","status":"requires_payment_method","client_secret":"pi_123_secret_abc","metadata":{"user_id":"u1","purpose":"task_posting_fee"}}`)
	})

	pi, err := g.CreateIntent(context.Background(), domain.IntentRequest{
		Amount:       100,
		Currency:     "usd",
		Metadata:     map[string]string{"user_id": "u1", "purpose": "task_posting_fee"},
		ReceiptEmail: "a@b.co",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, "pi_123_secret_abc", pi.ClientSecret)
	assert.Equal(t, domain.IntentStatusRequiresPaymentMethod, pi.Status)
	assert.Equal(t, "u1", pi.Metadata["user_id"])
}

func TestRetrieveIntentErrors(t *testing.T) {
	t.Run("missing intent", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent: 'pi_x'"}}`)
		})
		_, err := g.RetrieveIntent(context.Background(), "pi_x")
		assert.ErrorIs(t, err, domain.ErrPaymentIntentNotFound)
	})

	t.Run("provider failure", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"type":"api_error","message":"boom"}}`)
		})
		_, err := g.RetrieveIntent(context.Background(), "pi_x")
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.NotErrorIs(t, err, domain.ErrPaymentIntentNotFound)
	})
}

func TestCreateIntentErrorsAreUpstream(t *testing.T) {
	for _, body := range []string{
		`{"error":{"type":"api_error","message":"boom"}}`,
		`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such customer"}}`,
	} {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, body)
		})
		_, err := g.CreateIntent(context.Background(), domain.IntentRequest{Amount: 100, Currency: "usd"})
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.NotErrorIs(t, err, domain.ErrPaymentIntentNotFound)
	}
}

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestVerifyDecodesPaymentIntentEvent(t *testing.T) {
	header, body := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "amount": 100, "currency": "usd",
			"status": "succeeded", "metadata": {"user_id": "u1", "purpose": "task_posting_fee"}}}
	}`)

	ev, err := NewWebhookVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentIntentSucceeded, ev.Type)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, "pi_123", ev.Intent.ID)
	assert.Equal(t, int64(100), ev.Intent.Amount)
	assert.Equal(t, "task_posting_fee", ev.Intent.Metadata["purpose"])
}

func TestVerifyIgnoresPayloadOfOtherEventTypes(t *testing.T) {
	header, body := signed(t, `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := NewWebhookVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentEventType("charge.refunded"), ev.Type)
	assert.Nil(t, ev.Intent)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	header, body := signed(t, `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{}}}`)

	_, err := NewWebhookVerifier("whsec_other").Verify(body, header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = NewWebhookVerifier(testSecret).Verify(body, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestVerifyWithoutSecret(t *testing.T) {
	_, err := NewWebhookVerifier("").Verify([]byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, domain.ErrWebhookNotConfigured)
}
