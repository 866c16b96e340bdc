package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

type Profile struct {
	ID          string
	Email       string
	UserType    string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	Rating      decimal.NullDecimal
	ReviewCount int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Task struct {
	ID                  string
	PosterID            string
	PaymentIntentID     *string
	Title               string
	Description         string
	BudgetMin           decimal.Decimal
	BudgetMax           decimal.Decimal
	PreferredWorkerType *string
	Deadline            *time.Time
	Category            *string
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type TaskListRow struct {
	Task
	BidCount int64
}

type Bid struct {
	ID             string
	TaskID         string
	BidderID       string
	Amount         decimal.Decimal
	Proposal       string
	EstimatedHours *int32
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Review struct {
	ID         string
	TaskID     string
	ReviewerID string
	RevieweeID string
	Rating     int16
	Comment    *string
	CreatedAt  time.Time
}

type TaskPostingPayment struct {
	PaymentIntentID string
	UserID          string
	Amount          int64
	Status          string
	TaskID          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
