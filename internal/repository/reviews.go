package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const reviewColumns = `id::text, task_id::text, reviewer_id::text, reviewee_id::text, rating, comment, created_at`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(
		&r.ID,
		&r.TaskID,
		&r.ReviewerID,
		&r.RevieweeID,
		&r.Rating,
		&r.Comment,
		&r.CreatedAt,
	)
	return r, err
}

type InsertReviewParams struct {
	ID         string
	TaskID     string
	ReviewerID string
	RevieweeID string
	Rating     int16
	Comment    *string
}

const insertReview = `INSERT INTO reviews (id, task_id, reviewer_id, reviewee_id, rating, comment)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + reviewColumns

func (q *Queries) InsertReview(ctx context.Context, arg InsertReviewParams) (Review, error) {
	return scanReview(q.db.QueryRow(ctx, insertReview,
		arg.ID,
		arg.TaskID,
		arg.ReviewerID,
		arg.RevieweeID,
		arg.Rating,
		arg.Comment,
	))
}

const listReviewsForProfile = `SELECT ` + reviewColumns + ` FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC`

func (q *Queries) ListReviewsForProfile(ctx context.Context, revieweeID string) ([]Review, error) {
	rows, err := q.db.Query(ctx, listReviewsForProfile, revieweeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
