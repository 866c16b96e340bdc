package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskCols = []string{
	"id", "poster_id", "payment_intent_id", "title", "description",
	"budget_min", "budget_max", "preferred_worker_type", "deadline", "category", "status",
	"created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func TestClaimPaymentReturnsOwnerAndTask(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectQuery("INSERT INTO task_posting_payments").
		WithArgs("pi_123", "u1", int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "task_id"}).AddRow("u1", strPtr("t1")))

	row, err := New(pool).ClaimPayment(context.Background(), ClaimPaymentParams{
		PaymentIntentID: "pi_123",
		UserID:          "u1",
		Amount:          100,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", row.UserID)
	require.NotNil(t, row.TaskID)
	assert.Equal(t, "t1", *row.TaskID)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestAttachPaymentTaskReportsConsumed(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectExec("UPDATE task_posting_payments SET task_id").
		WithArgs("pi_123", "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec("UPDATE task_posting_payments SET task_id").
		WithArgs("pi_123", "t2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	q := New(pool)
	ok, err := q.AttachPaymentTask(context.Background(), "pi_123", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.AttachPaymentTask(context.Background(), "pi_123", "t2")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestUpsertPaymentSkipsForeignOwner(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectExec("INSERT INTO task_posting_payments").
		WithArgs("pi_123", "u2", int64(100), "succeeded").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	written, err := New(pool).UpsertPayment(context.Background(), UpsertPaymentParams{
		PaymentIntentID: "pi_123",
		UserID:          "u2",
		Amount:          100,
		Status:          "succeeded",
	})
	require.NoError(t, err)
	assert.False(t, written)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestListTasksParsesNumericColumns(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	open := "OPEN"
	rows := pgxmock.NewRows(append(taskCols, "bid_count")).
		AddRow("t1", "u1", strPtr("pi_1"), "Title", "Desc", "10.00", "25.50", nil, nil, strPtr("data"), "OPEN", now, now, int64(3))

	pool.ExpectQuery("AS bid_count").
		WithArgs(&open, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int32(50), int32(0)).
		WillReturnRows(rows)

	items, err := New(pool).ListTasks(context.Background(), ListTasksParams{Status: &open, Limit: 50})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].ID)
	assert.True(t, items[0].BudgetMin.Equal(decimal.NewFromInt(10)))
	assert.True(t, items[0].BudgetMax.Equal(decimal.RequireFromString("25.5")))
	assert.Equal(t, int64(3), items[0].BidCount)
	assert.Nil(t, items[0].Deadline)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestGetTaskNoRows(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectQuery("FROM tasks t WHERE t.id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = New(pool).GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestWithUserScopeSetsClaimsAndRole(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	now := time.Now()
	pool.ExpectBegin()
	pool.ExpectExec("set_config").
		WithArgs(`{"role":"authenticated","sub":"u1"}`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	pool.ExpectExec(`SET LOCAL ROLE "authenticated"`).
		WillReturnResult(pgxmock.NewResult("SET", 0))
	pool.ExpectQuery("FROM task_posting_payments").
		WithArgs("pi_123").
		WillReturnRows(pgxmock.NewRows([]string{"payment_intent_id", "user_id", "amount", "status", "task_id", "created_at", "updated_at"}).
			AddRow("pi_123", "u1", int64(100), "pending", nil, now, now))
	pool.ExpectCommit()

	var got TaskPostingPayment
	err = WithUserScope(context.Background(), pool, "u1", "authenticated", func(q *Queries) error {
		var err error
		got, err = q.GetPayment(context.Background(), "pi_123")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Nil(t, got.TaskID)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestWithUserScopeRollsBackOnError(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectBegin()
	pool.ExpectExec("set_config").
		WithArgs(`{"role":"","sub":"u1"}`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	pool.ExpectRollback()

	boom := errors.New("boom")
	err = WithUserScope(context.Background(), pool, "u1", "", func(q *Queries) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "tasks_payment_intent_id_key"}
	wrapped := fmt.Errorf("insert task: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.True(t, IsUniqueViolation(wrapped, "tasks_payment_intent_id_key"))
	assert.False(t, IsUniqueViolation(wrapped, "bids_one_per_bidder"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key"), ""))
}
