package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentAttempt is the audit row tracking one posting-fee payment intent.
type PaymentAttempt struct {
	PaymentIntentID string        `json:"payment_intent_id"`
	UserID          string        `json:"user_id"`
	Amount          int64         `json:"amount"`
	Status          PaymentStatus `json:"status"`
	TaskID          *string       `json:"task_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PostingFeeConfig is the fee charged before a task is published. Amount is in minor units.
type PostingFeeConfig struct {
	Amount   int64
	Currency string
	PriceID  string
}

// Price is the subset of a provider price object the fee resolver validates.
type Price struct {
	ID         string
	Active     bool
	OneTime    bool
	Currency   string
	UnitAmount *int64
}

type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusCanceled              IntentStatus = "canceled"
)

type PaymentIntent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
	ClientSecret string
}

type IntentRequest struct {
	Amount       int64
	Currency     string
	Metadata     map[string]string
	ReceiptEmail string
	Description  string
}

// IssuedIntent is returned to the browser so it can confirm the payment.
type IssuedIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type PaymentEventType string

const (
	EventPaymentIntentSucceeded     PaymentEventType = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed PaymentEventType = "payment_intent.payment_failed"
	EventPaymentIntentCanceled      PaymentEventType = "payment_intent.canceled"
)

// PaymentEvent is a verified provider webhook event. Intent is nil for event
// types that do not carry a payment intent.
type PaymentEvent struct {
	ID     string
	Type   PaymentEventType
	Intent *PaymentIntent
}
