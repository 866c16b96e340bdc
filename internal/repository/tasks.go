package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const taskColumns = `t.id::text, t.poster_id::text, t.payment_intent_id, t.title, t.description,
    t.budget_min::text, t.budget_max::text, t.preferred_worker_type, t.deadline, t.category, t.status,
    t.created_at, t.updated_at`

// taskScan holds numeric columns as text until they are parsed into decimals.
type taskScan struct {
	Task
	budgetMin string
	budgetMax string
}

func (s *taskScan) dest() []any {
	return []any{
		&s.ID,
		&s.PosterID,
		&s.PaymentIntentID,
		&s.Title,
		&s.Description,
		&s.budgetMin,
		&s.budgetMax,
		&s.PreferredWorkerType,
		&s.Deadline,
		&s.Category,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

func (s *taskScan) task() (Task, error) {
	var err error
	if s.BudgetMin, err = decimal.NewFromString(s.budgetMin); err != nil {
		return Task{}, fmt.Errorf("parse budget_min: %w", err)
	}
	if s.BudgetMax, err = decimal.NewFromString(s.budgetMax); err != nil {
		return Task{}, fmt.Errorf("parse budget_max: %w", err)
	}
	return s.Task, nil
}

func scanTask(row pgx.Row) (Task, error) {
	var s taskScan
	if err := row.Scan(s.dest()...); err != nil {
		return Task{}, err
	}
	return s.task()
}

type InsertTaskParams struct {
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
}

const insertTask = `INSERT INTO tasks AS t (
    id, poster_id, payment_intent_id, title, description,
    budget_min, budget_max, preferred_worker_type, deadline, category, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'OPEN')
RETURNING ` + taskColumns

func (q *Queries) InsertTask(ctx context.Context, arg InsertTaskParams) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, insertTask,
		arg.ID,
		arg.PosterID,
		arg.PaymentIntentID,
		arg.Title,
		arg.Description,
		arg.BudgetMin,
		arg.BudgetMax,
		arg.PreferredWorkerType,
		arg.Deadline,
		arg.Category,
	))
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, getTask, id))
}

const getTaskForUpdate = getTask + ` FOR UPDATE`

// GetTaskForUpdate locks the task row until the surrounding transaction ends.
func (q *Queries) GetTaskForUpdate(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, getTaskForUpdate, id))
}

type ListTasksParams struct {
	Status              *string
	Category            *string
	PreferredWorkerType *string
	PosterID            *string
	Limit               int32
	Offset              int32
}

const listTasks = `SELECT ` + taskColumns + `,
    (SELECT count(*) FROM bids b WHERE b.task_id = t.id) AS bid_count
FROM tasks t
WHERE ($1::text IS NULL OR t.status = $1)
  AND ($2::text IS NULL OR t.category = $2)
  AND ($3::text IS NULL OR t.preferred_worker_type = $3)
  AND ($4::uuid IS NULL OR t.poster_id = $4)
ORDER BY t.created_at DESC, t.id
LIMIT $5 OFFSET $6`

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]TaskListRow, error) {
	rows, err := q.db.Query(ctx, listTasks,
		arg.Status,
		arg.Category,
		arg.PreferredWorkerType,
		arg.PosterID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TaskListRow
	for rows.Next() {
		var (
			s        taskScan
			bidCount int64
		)
		if err := rows.Scan(append(s.dest(), &bidCount)...); err != nil {
			return nil, err
		}
		t, err := s.task()
		if err != nil {
			return nil, err
		}
		items = append(items, TaskListRow{Task: t, BidCount: bidCount})
	}
	return items, rows.Err()
}

type UpdateTaskParams struct {
	ID                  string
	Title               string
	Description         string
	BudgetMin           decimal.Decimal
	BudgetMax           decimal.Decimal
	PreferredWorkerType *string
	Deadline            *time.Time
	Category            *string
	Status              string
}

const updateTask = `UPDATE tasks AS t SET
    title                 = $2,
    description           = $3,
    budget_min            = $4,
    budget_max            = $5,
    preferred_worker_type = $6,
    deadline              = $7,
    category              = $8,
    status                = $9,
    updated_at            = now()
WHERE t.id = $1
RETURNING ` + taskColumns

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, updateTask,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.BudgetMin,
		arg.BudgetMax,
		arg.PreferredWorkerType,
		arg.Deadline,
		arg.Category,
		arg.Status,
	))
}

const setTaskStatus = `UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetTaskStatus(ctx context.Context, id, status string) error {
	_, err := q.db.Exec(ctx, setTaskStatus, id, status)
	return err
}
