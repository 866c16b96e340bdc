package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const bidColumns = `id::text, task_id::text, bidder_id::text, amount::text, proposal, estimated_hours, status, created_at, updated_at`

func scanBid(row pgx.Row) (Bid, error) {
	var (
		b      Bid
		amount string
	)
	err := row.Scan(
		&b.ID,
		&b.TaskID,
		&b.BidderID,
		&amount,
		&b.Proposal,
		&b.EstimatedHours,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return Bid{}, err
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return Bid{}, fmt.Errorf("parse amount: %w", err)
	}
	return b, nil
}

func collectBids(rows pgx.Rows, err error) ([]Bid, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

type InsertBidParams struct {
	ID             string
	TaskID         string
	BidderID       string
	Amount         decimal.Decimal
	Proposal       string
	EstimatedHours *int32
}

const insertBid = `INSERT INTO bids (id, task_id, bidder_id, amount, proposal, estimated_hours, status)
VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
RETURNING ` + bidColumns

func (q *Queries) InsertBid(ctx context.Context, arg InsertBidParams) (Bid, error) {
	return scanBid(q.db.QueryRow(ctx, insertBid,
		arg.ID,
		arg.TaskID,
		arg.BidderID,
		arg.Amount,
		arg.Proposal,
		arg.EstimatedHours,
	))
}

const getBid = `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`

func (q *Queries) GetBid(ctx context.Context, id string) (Bid, error) {
	return scanBid(q.db.QueryRow(ctx, getBid, id))
}

const listBidsForTask = `SELECT ` + bidColumns + ` FROM bids WHERE task_id = $1 ORDER BY created_at`

func (q *Queries) ListBidsForTask(ctx context.Context, taskID string) ([]Bid, error) {
	return collectBids(q.db.Query(ctx, listBidsForTask, taskID))
}

const listBidsByBidder = `SELECT ` + bidColumns + ` FROM bids WHERE bidder_id = $1 ORDER BY created_at DESC`

func (q *Queries) ListBidsByBidder(ctx context.Context, bidderID string) ([]Bid, error) {
	return collectBids(q.db.Query(ctx, listBidsByBidder, bidderID))
}

const getAcceptedBid = `SELECT ` + bidColumns + ` FROM bids WHERE task_id = $1 AND status = 'ACCEPTED'`

func (q *Queries) GetAcceptedBid(ctx context.Context, taskID string) (Bid, error) {
	return scanBid(q.db.QueryRow(ctx, getAcceptedBid, taskID))
}

const acceptBid = `UPDATE bids SET status = 'ACCEPTED', updated_at = now()
WHERE id = $1 AND status = 'PENDING'`

// AcceptBid reports whether a pending bid was moved to ACCEPTED.
func (q *Queries) AcceptBid(ctx context.Context, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, acceptBid, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const rejectOtherBids = `UPDATE bids SET status = 'REJECTED', updated_at = now()
WHERE task_id = $1 AND id <> $2 AND status = 'PENDING'`

func (q *Queries) RejectOtherBids(ctx context.Context, taskID, acceptedID string) (int64, error) {
	tag, err := q.db.Exec(ctx, rejectOtherBids, taskID, acceptedID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
