package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/repository"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	userOne   = "11111111-1111-4111-8111-111111111111"
	userTwo   = "22222222-2222-4222-8222-222222222222"
	taskOneID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	bidOneID  = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

var (
	taskCols = []string{
		"id", "poster_id", "payment_intent_id", "title", "description",
		"budget_min", "budget_max", "preferred_worker_type", "deadline", "category", "status",
		"created_at", "updated_at",
	}
	bidCols     = []string{"id", "task_id", "bidder_id", "amount", "proposal", "estimated_hours", "status", "created_at", "updated_at"}
	paymentCols = []string{"payment_intent_id", "user_id", "amount", "status", "task_id", "created_at", "updated_at"}
	testNow     = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func taskRows(id, posterID, status string) *pgxmock.Rows {
	return pgxmock.NewRows(taskCols).
		AddRow(id, posterID, strPtr("pi_123"), "Scrape listings", "Collect 100 listings", "10.00", "50.00", nil, nil, nil, status, testNow, testNow)
}

func bidRows(id, taskID, bidderID, status string) *pgxmock.Rows {
	return pgxmock.NewRows(bidCols).
		AddRow(id, taskID, bidderID, "25.00", "I can do it", nil, status, testNow, testNow)
}

// fakeGateway is an in-memory PaymentGateway.
type fakeGateway struct {
	mu          sync.Mutex
	price       *domain.Price
	priceErr    error
	priceCalls  int
	intents     map[string]*domain.PaymentIntent
	retrieveErr error
	created     []domain.IntentRequest
	createErr   error
	cancelled   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*domain.PaymentIntent{}}
}

func (g *fakeGateway) RetrievePrice(_ context.Context, _ string) (*domain.Price, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.priceCalls++
	if g.priceErr != nil {
		return nil, g.priceErr
	}
	return g.price, nil
}

func (g *fakeGateway) CreateIntent(_ context.Context, req domain.IntentRequest) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	pi := &domain.PaymentIntent{
		ID:           "pi_new",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       domain.IntentStatusRequiresPaymentMethod,
		Metadata:     req.Metadata,
		ClientSecret: "pi_new_secret",
	}
	g.intents[pi.ID] = pi
	return pi, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	pi, ok := g.intents[id]
	if !ok {
		return nil, domain.ErrPaymentIntentNotFound
	}
	return pi, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, id)
	return nil
}

type fakeNotifier struct {
	posted []*domain.Task
	failed []*domain.PaymentAttempt
	errs   []error
}

func (n *fakeNotifier) TaskPosted(t *domain.Task) { n.posted = append(n.posted, t) }

func (n *fakeNotifier) PaymentFailed(a *domain.PaymentAttempt) { n.failed = append(n.failed, a) }

func (n *fakeNotifier) Error(err error, _ string) { n.errs = append(n.errs, err) }

func succeededIntent(userID string) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:       "pi_123",
		Amount:   100,
		Currency: "usd",
		Status:   domain.IntentStatusSucceeded,
		Metadata: map[string]string{
			config.MetadataKeyUserID:  userID,
			config.MetadataKeyPurpose: config.PaymentPurposeTaskPosting,
		},
	}
}

func validTaskInput() domain.CreateTaskInput {
	return domain.CreateTaskInput{
		PaymentIntentID: "pi_123",
		TaskFields: domain.TaskFields{
			Title:       "Scrape listings",
			Description: "Collect 100 listings",
			BudgetMin:   decimalPtr("10"),
			BudgetMax:   decimalPtr("50"),
		},
	}
}

type taskFixture struct {
	pool     pgxmock.PgxPoolIface
	gateway  *fakeGateway
	notifier *fakeNotifier
	svc      *TaskService
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	gw := newFakeGateway()
	n := &fakeNotifier{}
	cfg := &config.Config{}
	fees := NewFeeResolver(gw, func() string { return "" }, nil)
	return &taskFixture{
		pool:     pool,
		gateway:  gw,
		notifier: n,
		svc:      NewTaskService(pool, repository.New(pool), gw, fees, n, nil, cfg),
	}
}

func expectSuccessfulCreate(pool pgxmock.PgxPoolIface, userID string) {
	pool.ExpectBegin()
	pool.ExpectQuery("INSERT INTO task_posting_payments").
		WithArgs("pi_123", userID, int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "task_id"}).AddRow(userID, nil))
	pool.ExpectQuery("INSERT INTO tasks").
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg(), "Scrape listings", "Collect 100 listings",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(taskOneID, userID, "OPEN"))
	pool.ExpectExec("UPDATE task_posting_payments SET task_id").
		WithArgs("pi_123", taskOneID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectCommit()
}

func TestCreateWithPaymentCreatesThenReplays(t *testing.T) {
	f := newTaskFixture(t)
	f.gateway.intents["pi_123"] = succeededIntent(userOne)
	user := &domain.User{ID: userOne}

	expectSuccessfulCreate(f.pool, userOne)

	res, err := f.svc.CreateWithPayment(context.Background(), user, validTaskInput())
	require.NoError(t, err)
	require.False(t, res.AlreadyCreated)
	require.Equal(t, taskOneID, res.Task.ID)
	require.Equal(t, domain.TaskStatusOpen, res.Task.Status)
	require.Len(t, f.notifier.posted, 1)

	// Second request with the same intent returns the same task.
	f.pool.ExpectBegin()
	f.pool.ExpectQuery("INSERT INTO task_posting_payments").
		WithArgs("pi_123", userOne, int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "task_id"}).AddRow(userOne, strPtr(taskOneID)))
	f.pool.ExpectRollback()
	f.pool.ExpectQuery("AND user_id = ").
		WithArgs("pi_123", userOne).
		WillReturnRows(pgxmock.NewRows(paymentCols).AddRow("pi_123", userOne, int64(100), "succeeded", strPtr(taskOneID), testNow, testNow))
	f.pool.ExpectQuery("FROM tasks t WHERE t.id").
		WithArgs(taskOneID).
		WillReturnRows(taskRows(taskOneID, userOne, "OPEN"))

	res, err = f.svc.CreateWithPayment(context.Background(), user, validTaskInput())
	require.NoError(t, err)
	require.True(t, res.AlreadyCreated)
	require.Equal(t, taskOneID, res.Task.ID)
	require.Len(t, f.notifier.posted, 1)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateWithPaymentRejectsOtherUsersIntent(t *testing.T) {
	f := newTaskFixture(t)
	f.gateway.intents["pi_123"] = succeededIntent(userOne)

	_, err := f.svc.CreateWithPayment(context.Background(), &domain.User{ID: userTwo}, validTaskInput())
	require.ErrorIs(t, err, domain.ErrOwnership)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateWithPaymentDetectsStoredOwnerMismatch(t *testing.T) {
	f := newTaskFixture(t)
	f.gateway.intents["pi_123"] = succeededIntent(userTwo)

	f.pool.ExpectBegin()
	f.pool.ExpectQuery("INSERT INTO task_posting_payments").
		WithArgs("pi_123", userTwo, int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "task_id"}).AddRow(userOne, nil))
	f.pool.ExpectRollback()

	_, err := f.svc.CreateWithPayment(context.Background(), &domain.User{ID: userTwo}, validTaskInput())
	require.ErrorIs(t, err, domain.ErrPaymentUserMismatch)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateWithPaymentPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		intent  func() *domain.PaymentIntent
		mutate  func(in *domain.CreateTaskInput)
		wantErr error
	}{
		{
			name:    "budget_max below budget_min",
			intent:  func() *domain.PaymentIntent { return succeededIntent(userOne) },
			mutate:  func(in *domain.CreateTaskInput) { in.BudgetMax = decimalPtr("5") },
			wantErr: domain.ErrValidation,
		},
		{
			name: "not yet paid",
			intent: func() *domain.PaymentIntent {
				pi := succeededIntent(userOne)
				pi.Status = domain.IntentStatusProcessing
				return pi
			},
			wantErr: domain.ErrPaymentNotReady,
		},
		{
			name: "wrong purpose",
			intent: func() *domain.PaymentIntent {
				pi := succeededIntent(userOne)
				pi.Metadata[config.MetadataKeyPurpose] = "subscription"
				return pi
			},
			wantErr: domain.ErrInvalidPurpose,
		},
		{
			name: "amount differs from fee",
			intent: func() *domain.PaymentIntent {
				pi := succeededIntent(userOne)
				pi.Amount = 50
				return pi
			},
			wantErr: domain.ErrAmountMismatch,
		},
		{
			name: "currency differs from fee",
			intent: func() *domain.PaymentIntent {
				pi := succeededIntent(userOne)
				pi.Currency = "eur"
				return pi
			},
			wantErr: domain.ErrAmountMismatch,
		},
		{
			name:    "unknown intent",
			intent:  func() *domain.PaymentIntent { return nil },
			wantErr: domain.ErrPaymentIntentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			if pi := tt.intent(); pi != nil {
				f.gateway.intents[pi.ID] = pi
			}
			in := validTaskInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			_, err := f.svc.CreateWithPayment(context.Background(), &domain.User{ID: userOne}, in)
			require.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, f.pool.ExpectationsWereMet())
		})
	}
}

func TestCreateWithPaymentUpstreamFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.gateway.retrieveErr = errors.Join(domain.ErrUpstream, errors.New("timeout"))

	_, err := f.svc.CreateWithPayment(context.Background(), &domain.User{ID: userOne}, validTaskInput())
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestCreateWithPaymentRequiresUser(t *testing.T) {
	f := newTaskFixture(t)
	_, err := f.svc.CreateWithPayment(context.Background(), nil, validTaskInput())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTaskUpdateRequiresPoster(t *testing.T) {
	f := newTaskFixture(t)
	title := "New"

	f.pool.ExpectBegin()
	f.pool.ExpectQuery("FOR UPDATE").WithArgs(taskOneID).WillReturnRows(taskRows(taskOneID, userOne, "OPEN"))
	f.pool.ExpectRollback()

	_, err := f.svc.Update(context.Background(), &domain.User{ID: userTwo}, taskOneID, domain.TaskUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotTaskPoster)
	require.NoError(t, f.pool.ExpectationsWereMet())
}
