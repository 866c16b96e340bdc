package service

import (
	"context"

	"github.com/lobsterwork/lobsterwork/internal/domain"
)

// PaymentGateway is the payment provider surface the services need.
type PaymentGateway interface {
	RetrievePrice(ctx context.Context, id string) (*domain.Price, error)
	CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error
}

// Notifier delivers operator notifications. Implementations must not block
// the caller on delivery failures.
type Notifier interface {
	TaskPosted(task *domain.Task)
	PaymentFailed(attempt *domain.PaymentAttempt)
	Error(err error, where string)
}

type nopNotifier struct{}

func (nopNotifier) TaskPosted(*domain.Task) {}
func (nopNotifier) PaymentFailed(*domain.PaymentAttempt) {}
func (nopNotifier) Error(error, string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
