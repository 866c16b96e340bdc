package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const profileColumns = `id::text, email, user_type, display_name, bio, avatar_url, rating::text, review_count, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p      Profile
		rating *string
	)
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.UserType,
		&p.DisplayName,
		&p.Bio,
		&p.AvatarURL,
		&rating,
		&p.ReviewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Profile{}, err
	}
	if rating != nil {
		r, err := decimal.NewFromString(*rating)
		if err != nil {
			return Profile{}, fmt.Errorf("parse rating: %w", err)
		}
		p.Rating = decimal.NewNullDecimal(r)
	}
	return p, nil
}

const getProfile = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfile, id))
}

type CreateProfileParams struct {
	ID       string
	Email    string
	UserType string
}

// Concurrent first requests for the same user both get the stored row back.
const createProfile = `INSERT INTO profiles (id, email, user_type)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET updated_at = profiles.updated_at
RETURNING ` + profileColumns

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, createProfile, arg.ID, arg.Email, arg.UserType))
}

type UpdateProfileParams struct {
	ID          string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	UserType    *string
}

const updateProfile = `UPDATE profiles SET
    display_name = COALESCE($2, display_name),
    bio          = COALESCE($3, bio),
    avatar_url   = COALESCE($4, avatar_url),
    user_type    = COALESCE($5, user_type),
    updated_at   = now()
WHERE id = $1
RETURNING ` + profileColumns

func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateProfile,
		arg.ID,
		arg.DisplayName,
		arg.Bio,
		arg.AvatarURL,
		arg.UserType,
	))
}

const lockProfile = `SELECT 1 FROM profiles WHERE id = $1 FOR UPDATE`

// LockProfile holds the profile row until the transaction ends so that
// rating refreshes for the same profile run one after another.
func (q *Queries) LockProfile(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, lockProfile, id)
	return err
}

const refreshProfileRating = `UPDATE profiles p SET
    rating       = s.avg_rating,
    review_count = s.review_count,
    updated_at   = now()
FROM (
    SELECT round(avg(rating), 2) AS avg_rating, count(*)::int AS review_count
    FROM reviews
    WHERE reviewee_id = $1
) s
WHERE p.id = $1`

// RefreshProfileRating recomputes the cached rating aggregate from reviews.
func (q *Queries) RefreshProfileRating(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, refreshProfileRating, id)
	return err
}
