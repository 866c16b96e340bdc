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
	"github.com/lobsterwork/lobsterwork/internal/repository"
)

type BidService struct {
	db      repository.DB
	queries *repository.Queries
	cfg     *config.Config
}

func NewBidService(db repository.DB, queries *repository.Queries, cfg *config.Config) *BidService {
	return &BidService{db: db, queries: queries, cfg: cfg}
}

func (s *BidService) Create(ctx context.Context, user *domain.User, in domain.CreateBidInput) (*domain.Bid, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(in.TaskID); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	task, err := s.queries.GetTask(ctx, in.TaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task.PosterID == user.ID {
		return nil, domain.ErrSelfBid
	}
	if domain.TaskStatus(task.Status) != domain.TaskStatusOpen {
		return nil, domain.ErrTaskNotOpen
	}

	row, err := s.queries.InsertBid(ctx, repository.InsertBidParams{
		ID:             uuid.NewString(),
		TaskID:         in.TaskID,
		BidderID:       user.ID,
		Amount:         *in.Amount,
		Proposal:       in.Proposal,
		EstimatedHours: intPtrToInt32Ptr(in.EstimatedHours),
	})
	if err != nil {
		if repository.IsUniqueViolation(err, "bids_one_per_bidder") {
			return nil, domain.ErrDuplicateBid
		}
		return nil, fmt.Errorf("insert bid: %w", err)
	}

	slog.Info("bid placed", "bid_id", row.ID, "task_id", row.TaskID, "bidder_id", user.ID)
	bid := rowToBid(row)
	return &bid, nil
}

// ListForTask returns the bids on a task that the caller may see.
func (s *BidService) ListForTask(ctx context.Context, user *domain.User, taskID string) ([]domain.Bid, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	task, err := s.queries.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var rows []repository.Bid
	err = repository.WithUserScope(ctx, s.db, user.ID, s.cfg.RLSRole, func(q *repository.Queries) error {
		var err error
		rows, err = q.ListBidsForTask(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return visibleBids(rowsToBids(rows), task.PosterID, user.ID), nil
}

func (s *BidService) ListMine(ctx context.Context, user *domain.User) ([]domain.Bid, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	var rows []repository.Bid
	err := repository.WithUserScope(ctx, s.db, user.ID, s.cfg.RLSRole, func(q *repository.Queries) error {
		var err error
		rows, err = q.ListBidsByBidder(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return rowsToBids(rows), nil
}

// Accept accepts a pending bid, rejects the task's other pending bids and
// moves the task to IN_PROGRESS. Only the task poster may accept.
func (s *BidService) Accept(ctx context.Context, user *domain.User, bidID string) (*domain.Bid, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(bidID); err != nil {
		return nil, domain.ErrBidNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	bid, err := qtx.GetBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBidNotFound
		}
		return nil, fmt.Errorf("get bid: %w", err)
	}

	task, err := qtx.GetTaskForUpdate(ctx, bid.TaskID)
	if err != nil {
		return nil, fmt.Errorf("lock task: %w", err)
	}
	if task.PosterID != user.ID {
		return nil, domain.ErrNotTaskPoster
	}
	if domain.TaskStatus(task.Status) != domain.TaskStatusOpen {
		return nil, domain.ErrTaskNotOpen
	}

	accepted, err := qtx.AcceptBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("accept bid: %w", err)
	}
	if !accepted {
		return nil, domain.ErrInvalidTransition
	}

	rejected, err := qtx.RejectOtherBids(ctx, task.ID, bidID)
	if err != nil {
		return nil, fmt.Errorf("reject other bids: %w", err)
	}

	if err := qtx.SetTaskStatus(ctx, task.ID, string(domain.TaskStatusInProgress)); err != nil {
		return nil, fmt.Errorf("start task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	slog.Info("bid accepted", "bid_id", bidID, "task_id", task.ID, "rejected", rejected)
	out := rowToBid(bid)
	out.Status = domain.BidStatusAccepted
	return &out, nil
}
