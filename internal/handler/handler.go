package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
)

// PaymentService issues posting-fee intents and records their outcome.
type PaymentService interface {
	CreateIntent(ctx context.Context, user *domain.User) (*domain.IssuedIntent, error)
	HandleEvent(ctx context.Context, ev *domain.PaymentEvent) error
	GetAttempt(ctx context.Context, user *domain.User, paymentIntentID string) (*domain.PaymentAttempt, error)
}

// EventVerifier authenticates provider webhook payloads.
type EventVerifier interface {
	Configured() bool
	Verify(payload []byte, signature string) (*domain.PaymentEvent, error)
}

type TaskService interface {
	CreateWithPayment(ctx context.Context, user *domain.User, in domain.CreateTaskInput) (*domain.CreateTaskResult, error)
	List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
	Get(ctx context.Context, user *domain.User, id string) (*domain.Task, error)
	Update(ctx context.Context, user *domain.User, id string, upd domain.TaskUpdate) (*domain.Task, error)
}

type BidService interface {
	Create(ctx context.Context, user *domain.User, in domain.CreateBidInput) (*domain.Bid, error)
	ListForTask(ctx context.Context, user *domain.User, taskID string) ([]domain.Bid, error)
	ListMine(ctx context.Context, user *domain.User) ([]domain.Bid, error)
	Accept(ctx context.Context, user *domain.User, bidID string) (*domain.Bid, error)
}

type ReviewService interface {
	Create(ctx context.Context, user *domain.User, in domain.CreateReviewInput) (*domain.Review, error)
	ListForProfile(ctx context.Context, profileID string) ([]domain.Review, error)
}

type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Update(ctx context.Context, user *domain.User, upd domain.ProfileUpdate) (*domain.Profile, error)
}

// ErrorReporter receives unexpected failures for operator attention.
type ErrorReporter interface {
	Error(err error, where string)
}

// Pinger checks that the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies needed by the HTTP routes.
type Handler struct {
	cfg      *config.Config
	payments PaymentService
	webhooks EventVerifier
	tasks    TaskService
	bids     BidService
	reviews  ReviewService
	profiles ProfileService
	reporter ErrorReporter
	db       Pinger
	limit    gin.HandlerFunc
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg            *config.Config
	PaymentService PaymentService
	Webhooks       EventVerifier
	TaskService    TaskService
	BidService     BidService
	ReviewService  ReviewService
	ProfileService ProfileService
	Reporter       ErrorReporter
	DB             Pinger
	RateLimit      gin.HandlerFunc // nil disables limiting
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:      deps.Cfg,
		payments: deps.PaymentService,
		webhooks: deps.Webhooks,
		tasks:    deps.TaskService,
		bids:     deps.BidService,
		reviews:  deps.ReviewService,
		profiles: deps.ProfileService,
		reporter: deps.Reporter,
		db:       deps.DB,
		limit:    deps.RateLimit,
	}
}
