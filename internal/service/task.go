package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/metrics"
	"github.com/lobsterwork/lobsterwork/internal/repository"
)

// IntentRetriever fetches the current state of a payment intent.
type IntentRetriever interface {
	RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

type TaskService struct {
	db       repository.DB
	queries  *repository.Queries
	intents  IntentRetriever
	fees     *FeeResolver
	notifier Notifier
	metrics  *metrics.Metrics
	cfg      *config.Config
}

func NewTaskService(db repository.DB, queries *repository.Queries, intents IntentRetriever, fees *FeeResolver, notifier Notifier, m *metrics.Metrics, cfg *config.Config) *TaskService {
	return &TaskService{
		db:       db,
		queries:  queries,
		intents:  intents,
		fees:     fees,
		notifier: notifierOrNop(notifier),
		metrics:  m,
		cfg:      cfg,
	}
}

// CreateWithPayment publishes a task paid for by a succeeded posting-fee
// intent. The intent is checked against the provider, then claimed and the
// task inserted in one transaction. Replaying a request for an intent that
// already produced this user's task returns that task with AlreadyCreated set.
func (s *TaskService) CreateWithPayment(ctx context.Context, user *domain.User, in domain.CreateTaskInput) (*domain.CreateTaskResult, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pi, err := s.intents.RetrieveIntent(ctx, in.PaymentIntentID)
	if err != nil {
		s.metrics.TaskCreation("intent_error")
		return nil, err
	}
	if pi.Status != domain.IntentStatusSucceeded {
		s.metrics.TaskCreation("not_paid")
		return nil, domain.ErrPaymentNotReady
	}
	if pi.Metadata[config.MetadataKeyPurpose] != config.PaymentPurposeTaskPosting {
		s.metrics.TaskCreation("wrong_purpose")
		return nil, domain.ErrInvalidPurpose
	}
	if pi.Metadata[config.MetadataKeyUserID] != user.ID {
		s.metrics.TaskCreation("wrong_owner")
		return nil, domain.ErrOwnership
	}

	fee, err := s.fees.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if pi.Amount != fee.Amount || pi.Currency != fee.Currency {
		s.metrics.TaskCreation("fee_mismatch")
		return nil, domain.ErrAmountMismatch
	}

	task, err := s.createTaskTx(ctx, user.ID, pi, in.TaskFields)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyUsed) {
			return s.replay(ctx, user.ID, pi.ID)
		}
		if errors.Is(err, domain.ErrPaymentUserMismatch) {
			s.metrics.TaskCreation("wrong_owner")
		}
		return nil, err
	}

	s.metrics.TaskCreation("created")
	slog.Info("task created", "task_id", task.ID, "poster_id", user.ID, "payment_intent_id", pi.ID)
	s.notifier.TaskPosted(task)

	return &domain.CreateTaskResult{Task: task}, nil
}

func (s *TaskService) createTaskTx(ctx context.Context, userID string, pi *domain.PaymentIntent, f domain.TaskFields) (*domain.Task, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	claim, err := qtx.ClaimPayment(ctx, repository.ClaimPaymentParams{
		PaymentIntentID: pi.ID,
		UserID:          userID,
		Amount:          pi.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("claim payment: %w", err)
	}
	if claim.UserID != userID {
		return nil, domain.ErrPaymentUserMismatch
	}
	if claim.TaskID != nil {
		return nil, domain.ErrPaymentAlreadyUsed
	}

	intentID := pi.ID
	row, err := qtx.InsertTask(ctx, repository.InsertTaskParams{
		ID:                  uuid.NewString(),
		PosterID:            userID,
		PaymentIntentID:     &intentID,
		Title:               f.Title,
		Description:         f.Description,
		BudgetMin:           *f.BudgetMin,
		BudgetMax:           *f.BudgetMax,
		PreferredWorkerType: userTypeToStringPtr(f.PreferredWorkerType),
		Deadline:            f.Deadline,
		Category:            f.Category,
	})
	if err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, domain.ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}

	attached, err := qtx.AttachPaymentTask(ctx, pi.ID, row.ID)
	if err != nil {
		return nil, fmt.Errorf("attach task to payment: %w", err)
	}
	if !attached {
		return nil, domain.ErrPaymentAlreadyUsed
	}

	if err := tx.Commit(ctx); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, domain.ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return rowToTask(row), nil
}

// replay returns the task an already consumed intent produced for userID,
// or ErrPaymentAlreadyUsed when there is none to return.
func (s *TaskService) replay(ctx context.Context, userID, paymentIntentID string) (*domain.CreateTaskResult, error) {
	payment, err := s.queries.GetPaymentForUser(ctx, paymentIntentID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.TaskCreation("already_used")
			return nil, domain.ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("get payment attempt: %w", err)
	}
	if payment.TaskID == nil {
		s.metrics.TaskCreation("already_used")
		return nil, domain.ErrPaymentAlreadyUsed
	}

	row, err := s.queries.GetTask(ctx, *payment.TaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.TaskCreation("already_used")
			return nil, domain.ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	s.metrics.TaskCreation("replayed")
	slog.Info("task creation replayed", "task_id", row.ID, "payment_intent_id", paymentIntentID)
	return &domain.CreateTaskResult{Task: rowToTask(row), AlreadyCreated: true}, nil
}

func (s *TaskService) List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	offset := max(f.Offset, 0)

	rows, err := s.queries.ListTasks(ctx, repository.ListTasksParams{
		Status:              taskStatusToStringPtr(f.Status),
		Category:            f.Category,
		PreferredWorkerType: userTypeToStringPtr(f.PreferredWorkerType),
		PosterID:            f.PosterID,
		Limit:               int32(limit),
		Offset:              int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, listRowToTask(r))
	}
	return tasks, nil
}

// Get returns a task. Bids are attached when user is set, limited to the
// ones row level security lets that user see.
func (s *TaskService) Get(ctx context.Context, user *domain.User, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	row, err := s.queries.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	task := rowToTask(row)
	if user == nil {
		return task, nil
	}

	var bids []repository.Bid
	err = repository.WithUserScope(ctx, s.db, user.ID, s.cfg.RLSRole, func(q *repository.Queries) error {
		var err error
		bids, err = q.ListBidsForTask(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list task bids: %w", err)
	}
	task.Bids = visibleBids(rowsToBids(bids), task.PosterID, user.ID)
	return task, nil
}

// visibleBids keeps every bid for the poster and only the caller's own bids
// for anyone else.
func visibleBids(bids []domain.Bid, posterID, userID string) []domain.Bid {
	if posterID == userID {
		return bids
	}
	out := bids[:0]
	for _, b := range bids {
		if b.BidderID == userID {
			out = append(out, b)
		}
	}
	return out
}

// Update applies a poster's edit to a task under a row lock.
func (s *TaskService) Update(ctx context.Context, user *domain.User, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	row, err := qtx.GetTaskForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if row.PosterID != user.ID {
		return nil, domain.ErrNotTaskPoster
	}

	merged, err := upd.Apply(*rowToTask(row))
	if err != nil {
		return nil, err
	}

	updated, err := qtx.UpdateTask(ctx, repository.UpdateTaskParams{
		ID:                  id,
		Title:               merged.Title,
		Description:         merged.Description,
		BudgetMin:           merged.BudgetMin,
		BudgetMax:           merged.BudgetMax,
		PreferredWorkerType: userTypeToStringPtr(merged.PreferredWorkerType),
		Deadline:            merged.Deadline,
		Category:            merged.Category,
		Status:              string(merged.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return rowToTask(updated), nil
}
