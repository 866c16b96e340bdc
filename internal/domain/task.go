package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a poster may move a task from s to next.
// OPEN -> IN_PROGRESS happens only by accepting a bid.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusOpen:
		return next == TaskStatusCancelled
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusCancelled
	}
	return false
}

type Task struct {
	ID                  string          `json:"id"`
	PosterID            string          `json:"poster_id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	BudgetMin           decimal.Decimal `json:"budget_min"`
	BudgetMax           decimal.Decimal `json:"budget_max"`
	PreferredWorkerType *UserType       `json:"preferred_worker_type,omitempty"`
	Deadline            *time.Time      `json:"deadline,omitempty"`
	Category            *string         `json:"category,omitempty"`
	Status              TaskStatus      `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	// Listing extras
	Excerpt  string `json:"excerpt,omitempty"`
	BidCount *int   `json:"bid_count,omitempty"`
	Bids     []Bid  `json:"bids,omitempty"`
}

// TaskFields are the poster-supplied attributes of a task.
type TaskFields struct {
	Title               string
	Description         string
	BudgetMin           *decimal.Decimal
	BudgetMax           *decimal.Decimal
	PreferredWorkerType *UserType
	Deadline            *time.Time
	Category            *string
}

func (f TaskFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return Invalid("title", "title is required")
	}
	if strings.TrimSpace(f.Description) == "" {
		return Invalid("description", "description is required")
	}
	if f.BudgetMin == nil {
		return Invalid("budget_min", "budget_min is required")
	}
	if f.BudgetMax == nil {
		return Invalid("budget_max", "budget_max is required")
	}
	if f.BudgetMin.IsNegative() {
		return Invalid("budget_min", "budget_min must not be negative")
	}
	if err := checkMoney("budget_min", *f.BudgetMin); err != nil {
		return err
	}
	if err := checkMoney("budget_max", *f.BudgetMax); err != nil {
		return err
	}
	if f.BudgetMax.LessThan(*f.BudgetMin) {
		return Invalid("budget_max", "Maximum budget must be greater than minimum budget")
	}
	if f.PreferredWorkerType != nil && !f.PreferredWorkerType.Valid() {
		return Invalid("preferred_worker_type", "preferred_worker_type must be HUMAN or AGENT")
	}
	return nil
}

type CreateTaskInput struct {
	PaymentIntentID string
	TaskFields
}

func (in CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.PaymentIntentID) == "" {
		return Invalid("payment_intent_id", "payment_intent_id is required")
	}
	return in.TaskFields.Validate()
}

// CreateTaskResult is the outcome of a paid task creation. AlreadyCreated is
// set when the payment had already produced this task.
type CreateTaskResult struct {
	Task           *Task `json:"task"`
	AlreadyCreated bool  `json:"alreadyCreated,omitempty"`
}

type TaskFilter struct {
	Status              *TaskStatus
	Category            *string
	PreferredWorkerType *UserType
	PosterID            *string
	Limit               int
	Offset              int
}

// TaskUpdate is a partial edit by the poster. Nil fields are left unchanged.
type TaskUpdate struct {
	Title               *string
	Description         *string
	BudgetMin           *decimal.Decimal
	BudgetMax           *decimal.Decimal
	PreferredWorkerType *UserType
	Deadline            *time.Time
	Category            *string
	Status              *TaskStatus
}

func (u TaskUpdate) editsFields() bool {
	return u.Title != nil || u.Description != nil || u.BudgetMin != nil || u.BudgetMax != nil ||
		u.PreferredWorkerType != nil || u.Deadline != nil || u.Category != nil
}

// Apply returns a copy of t with the update merged in, or an error if the
// result would be invalid.
func (u TaskUpdate) Apply(t Task) (Task, error) {
	if u.editsFields() && t.Status != TaskStatusOpen {
		return t, ErrTaskNotOpen
	}
	if u.Status != nil && *u.Status != t.Status {
		if !u.Status.Valid() {
			return t, Invalid("status", "status is invalid")
		}
		if !t.Status.CanTransition(*u.Status) {
			return t, ErrInvalidTransition
		}
		t.Status = *u.Status
	}
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = strings.TrimSpace(*u.Description)
	}
	if u.BudgetMin != nil {
		t.BudgetMin = *u.BudgetMin
	}
	if u.BudgetMax != nil {
		t.BudgetMax = *u.BudgetMax
	}
	if u.PreferredWorkerType != nil {
		t.PreferredWorkerType = u.PreferredWorkerType
	}
	if u.Deadline != nil {
		t.Deadline = u.Deadline
	}
	if u.Category != nil {
		t.Category = u.Category
	}

	fields := TaskFields{
		Title:               t.Title,
		Description:         t.Description,
		BudgetMin:           &t.BudgetMin,
		BudgetMax:           &t.BudgetMax,
		PreferredWorkerType: t.PreferredWorkerType,
	}
	if err := fields.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// ParseDeadline accepts an RFC 3339 timestamp or a plain calendar date.
func ParseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, Invalid("deadline", "deadline must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return &t, nil
}
