package domain

import (
	"fmt"
	"strings"
	"time"
)

type Review struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateReviewInput struct {
	TaskID     string
	RevieweeID string
	Rating     int
	Comment    *string
}

func (in CreateReviewInput) Validate(minRating, maxRating int) error {
	if strings.TrimSpace(in.TaskID) == "" {
		return Invalid("task_id", "task_id is required")
	}
	if strings.TrimSpace(in.RevieweeID) == "" {
		return Invalid("reviewee_id", "reviewee_id is required")
	}
	if in.Rating < minRating || in.Rating > maxRating {
		return Invalid("rating", fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}
	return nil
}
