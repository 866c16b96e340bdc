package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `payment_intent_id, user_id::text, amount, status, task_id::text, created_at, updated_at`

func scanPayment(row pgx.Row) (TaskPostingPayment, error) {
	var p TaskPostingPayment
	err := row.Scan(
		&p.PaymentIntentID,
		&p.UserID,
		&p.Amount,
		&p.Status,
		&p.TaskID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

type UpsertPaymentParams struct {
	PaymentIntentID string
	UserID          string
	Amount          int64
	Status          string
}

// The owner of an existing row is never rewritten, and a row that already
// produced a task keeps its state.
const upsertPayment = `INSERT INTO task_posting_payments (payment_intent_id, user_id, amount, status)
VALUES ($1, $2, $3, $4)
ON CONFLICT (payment_intent_id) DO UPDATE SET
    amount     = EXCLUDED.amount,
    status     = EXCLUDED.status,
    updated_at = now()
WHERE task_posting_payments.user_id = EXCLUDED.user_id
  AND task_posting_payments.task_id IS NULL`

// UpsertPayment reports whether a row was inserted or updated.
func (q *Queries) UpsertPayment(ctx context.Context, arg UpsertPaymentParams) (bool, error) {
	tag, err := q.db.Exec(ctx, upsertPayment, arg.PaymentIntentID, arg.UserID, arg.Amount, arg.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type ClaimPaymentParams struct {
	PaymentIntentID string
	UserID          string
	Amount          int64
}

type ClaimPaymentRow struct {
	UserID string
	TaskID *string
}

// Inserts or marks the attempt succeeded and returns its owner and task. The
// returned row stays locked for the rest of the transaction, so concurrent
// claims for one intent run one after another.
const claimPayment = `INSERT INTO task_posting_payments (payment_intent_id, user_id, amount, status)
VALUES ($1, $2, $3, 'succeeded')
ON CONFLICT (payment_intent_id) DO UPDATE SET
    status     = 'succeeded',
    amount     = EXCLUDED.amount,
    updated_at = now()
RETURNING user_id::text, task_id::text`

func (q *Queries) ClaimPayment(ctx context.Context, arg ClaimPaymentParams) (ClaimPaymentRow, error) {
	var r ClaimPaymentRow
	err := q.db.QueryRow(ctx, claimPayment, arg.PaymentIntentID, arg.UserID, arg.Amount).Scan(&r.UserID, &r.TaskID)
	return r, err
}

const attachPaymentTask = `UPDATE task_posting_payments SET task_id = $2, updated_at = now()
WHERE payment_intent_id = $1 AND task_id IS NULL`

// AttachPaymentTask reports whether the attempt was still unconsumed.
func (q *Queries) AttachPaymentTask(ctx context.Context, paymentIntentID, taskID string) (bool, error) {
	tag, err := q.db.Exec(ctx, attachPaymentTask, paymentIntentID, taskID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const getPaymentForUser = `SELECT ` + paymentColumns + `
FROM task_posting_payments
WHERE payment_intent_id = $1 AND user_id = $2`

func (q *Queries) GetPaymentForUser(ctx context.Context, paymentIntentID, userID string) (TaskPostingPayment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentForUser, paymentIntentID, userID))
}

const getPayment = `SELECT ` + paymentColumns + ` FROM task_posting_payments WHERE payment_intent_id = $1`

// GetPayment relies on row level security to hide other users' attempts
// when run inside a user scope.
func (q *Queries) GetPayment(ctx context.Context, paymentIntentID string) (TaskPostingPayment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPayment, paymentIntentID))
}

const listStalePendingPayments = `SELECT ` + paymentColumns + `
FROM task_posting_payments
WHERE status = 'pending' AND updated_at < $1
ORDER BY updated_at
LIMIT $2`

func (q *Queries) ListStalePendingPayments(ctx context.Context, before time.Time, limit int32) ([]TaskPostingPayment, error) {
	rows, err := q.db.Query(ctx, listStalePendingPayments, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TaskPostingPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const setPaymentStatus = `UPDATE task_posting_payments SET status = $2, updated_at = now()
WHERE payment_intent_id = $1 AND status = 'pending'`

func (q *Queries) SetPaymentStatus(ctx context.Context, paymentIntentID, status string) error {
	_, err := q.db.Exec(ctx, setPaymentStatus, paymentIntentID, status)
	return err
}

const touchPayment = `UPDATE task_posting_payments SET updated_at = now()
WHERE payment_intent_id = $1 AND status = 'pending'`

// TouchPayment moves a still pending attempt to the back of the stale queue.
func (q *Queries) TouchPayment(ctx context.Context, paymentIntentID string) error {
	_, err := q.db.Exec(ctx, touchPayment, paymentIntentID)
	return err
}
