package service

import (
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/repository"
	"github.com/lobsterwork/lobsterwork/internal/text"
)

// rowToProfile converts a repository row to a domain.Profile.
func rowToProfile(row repository.Profile) *domain.Profile {
	p := &domain.Profile{
		ID:          row.ID,
		Email:       row.Email,
		UserType:    domain.UserType(row.UserType),
		DisplayName: row.DisplayName,
		Bio:         row.Bio,
		AvatarURL:   row.AvatarURL,
		ReviewCount: int(row.ReviewCount),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Rating.Valid {
		r := row.Rating.Decimal
		p.Rating = &r
	}
	return p
}

// rowToTask converts a repository row to a domain.Task.
func rowToTask(row repository.Task) *domain.Task {
	return &domain.Task{
		ID:                  row.ID,
		PosterID:            row.PosterID,
		Title:               row.Title,
		Description:         row.Description,
		BudgetMin:           row.BudgetMin,
		BudgetMax:           row.BudgetMax,
		PreferredWorkerType: stringPtrToUserType(row.PreferredWorkerType),
		Deadline:            row.Deadline,
		Category:            row.Category,
		Status:              domain.TaskStatus(row.Status),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

// listRowToTask adds the listing excerpt and bid count.
func listRowToTask(row repository.TaskListRow) domain.Task {
	t := rowToTask(row.Task)
	t.Excerpt = text.Excerpt(row.Description, config.TaskExcerptLen)
	count := int(row.BidCount)
	t.BidCount = &count
	return *t
}

func rowToBid(row repository.Bid) domain.Bid {
	return domain.Bid{
		ID:             row.ID,
		TaskID:         row.TaskID,
		BidderID:       row.BidderID,
		Amount:         row.Amount,
		Proposal:       row.Proposal,
		EstimatedHours: int32PtrToIntPtr(row.EstimatedHours),
		Status:         domain.BidStatus(row.Status),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func rowsToBids(rows []repository.Bid) []domain.Bid {
	bids := make([]domain.Bid, 0, len(rows))
	for _, r := range rows {
		bids = append(bids, rowToBid(r))
	}
	return bids
}

func rowToReview(row repository.Review) domain.Review {
	return domain.Review{
		ID:         row.ID,
		TaskID:     row.TaskID,
		ReviewerID: row.ReviewerID,
		RevieweeID: row.RevieweeID,
		Rating:     int(row.Rating),
		Comment:    row.Comment,
		CreatedAt:  row.CreatedAt,
	}
}

func rowToPaymentAttempt(row repository.TaskPostingPayment) *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		PaymentIntentID: row.PaymentIntentID,
		UserID:          row.UserID,
		Amount:          row.Amount,
		Status:          domain.PaymentStatus(row.Status),
		TaskID:          row.TaskID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// int32PtrToIntPtr converts *int32 to *int.
func int32PtrToIntPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

// intPtrToInt32Ptr converts *int to *int32.
func intPtrToInt32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

func stringPtrToUserType(s *string) *domain.UserType {
	if s == nil {
		return nil
	}
	t := domain.UserType(*s)
	return &t
}

func userTypeToStringPtr(t *domain.UserType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func taskStatusToStringPtr(s *domain.TaskStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
