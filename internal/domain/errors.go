package domain

import "errors"

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrValidation            = errors.New("validation failed")
	ErrPaymentIntentNotFound = errors.New("unknown payment_intent_id")
	ErrPaymentNotReady       = errors.New("payment has not succeeded yet")
	ErrInvalidPurpose        = errors.New("invalid payment intent purpose")
	ErrOwnership             = errors.New("payment intent does not belong to this user")
	ErrAmountMismatch        = errors.New("payment amount/currency mismatch")
	ErrPaymentAlreadyUsed    = errors.New("payment already used")
	ErrPaymentUserMismatch   = errors.New("payment intent user mismatch")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrUpstream              = errors.New("payment provider unavailable")
	ErrConfiguration         = errors.New("configuration error")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrWebhookNotConfigured  = errors.New("webhook secret not configured")

	ErrProfileNotFound   = errors.New("profile not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrNotTaskPoster     = errors.New("only the task poster can do this")
	ErrTaskNotOpen       = errors.New("task is not open")
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrBidNotFound       = errors.New("bid not found")
	ErrSelfBid           = errors.New("cannot bid on your own task")
	ErrDuplicateBid      = errors.New("bid already placed on this task")
	ErrReviewNotAllowed  = errors.New("review not allowed for this task")
	ErrDuplicateReview   = errors.New("task already reviewed")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
