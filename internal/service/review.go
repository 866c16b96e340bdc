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

type ReviewService struct {
	db      repository.DB
	queries *repository.Queries
}

func NewReviewService(db repository.DB, queries *repository.Queries) *ReviewService {
	return &ReviewService{db: db, queries: queries}
}

// Create records a review between the poster and the accepted bidder of a
// completed task and refreshes the reviewee's rating in the same transaction.
func (s *ReviewService) Create(ctx context.Context, user *domain.User, in domain.CreateReviewInput) (*domain.Review, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := in.Validate(config.MinRating, config.MaxRating); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(in.TaskID); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	task, err := qtx.GetTask(ctx, in.TaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if domain.TaskStatus(task.Status) != domain.TaskStatusCompleted {
		return nil, domain.ErrReviewNotAllowed
	}

	accepted, err := qtx.GetAcceptedBid(ctx, task.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotAllowed
		}
		return nil, fmt.Errorf("get accepted bid: %w", err)
	}

	posterReviewsWorker := user.ID == task.PosterID && in.RevieweeID == accepted.BidderID
	workerReviewsPoster := user.ID == accepted.BidderID && in.RevieweeID == task.PosterID
	if !posterReviewsWorker && !workerReviewsPoster {
		return nil, domain.ErrReviewNotAllowed
	}

	// Taken before the insert so the refresh below sees every review
	// committed by a concurrent transaction for the same reviewee.
	if err := qtx.LockProfile(ctx, in.RevieweeID); err != nil {
		return nil, fmt.Errorf("lock reviewee profile: %w", err)
	}

	row, err := qtx.InsertReview(ctx, repository.InsertReviewParams{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		ReviewerID: user.ID,
		RevieweeID: in.RevieweeID,
		Rating:     int16(in.Rating),
		Comment:    in.Comment,
	})
	if err != nil {
		if repository.IsUniqueViolation(err, "reviews_one_per_reviewer") {
			return nil, domain.ErrDuplicateReview
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	if err := qtx.RefreshProfileRating(ctx, in.RevieweeID); err != nil {
		return nil, fmt.Errorf("refresh rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	slog.Info("review created", "review_id", row.ID, "task_id", task.ID, "reviewee_id", in.RevieweeID)
	review := rowToReview(row)
	return &review, nil
}

func (s *ReviewService) ListForProfile(ctx context.Context, profileID string) ([]domain.Review, error) {
	if _, err := uuid.Parse(profileID); err != nil {
		return nil, domain.ErrProfileNotFound
	}
	rows, err := s.queries.ListReviewsForProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	reviews := make([]domain.Review, 0, len(rows))
	for _, r := range rows {
		reviews = append(reviews, rowToReview(r))
	}
	return reviews, nil
}
