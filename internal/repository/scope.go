package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// WithUserScope runs fn in a read transaction that carries the caller's
// identity, so row level security policies filter what fn can see. The
// role switch is skipped when role is empty.
func WithUserScope(ctx context.Context, db DB, userID, role string, fn func(q *Queries) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	claims, err := json.Marshal(map[string]string{"sub": userID, "role": role})
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('request.jwt.claims', $1, true)", string(claims)); err != nil {
		return fmt.Errorf("set claims: %w", err)
	}
	if role != "" {
		if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{role}.Sanitize()); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
	}

	if err := fn(New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
