package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "PENDING"
	BidStatusAccepted BidStatus = "ACCEPTED"
	BidStatusRejected BidStatus = "REJECTED"
)

type Bid struct {
	ID             string          `json:"id"`
	TaskID         string          `json:"task_id"`
	BidderID       string          `json:"bidder_id"`
	Amount         decimal.Decimal `json:"amount"`
	Proposal       string          `json:"proposal"`
	EstimatedHours *int            `json:"estimated_hours,omitempty"`
	Status         BidStatus       `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateBidInput struct {
	TaskID         string
	Amount         *decimal.Decimal
	Proposal       string
	EstimatedHours *int
}

func (in CreateBidInput) Validate() error {
	if strings.TrimSpace(in.TaskID) == "" {
		return Invalid("task_id", "task_id is required")
	}
	if in.Amount == nil {
		return Invalid("amount", "amount is required")
	}
	if !in.Amount.IsPositive() {
		return Invalid("amount", "amount must be greater than zero")
	}
	if err := checkMoney("amount", *in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Proposal) == "" {
		return Invalid("proposal", "proposal is required")
	}
	if in.EstimatedHours != nil && *in.EstimatedHours <= 0 {
		return Invalid("estimated_hours", "estimated_hours must be positive")
	}
	return nil
}
