package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound marks lookups that miss because the row does not exist or
// belongs to another user. Handlers map it to 404; wrap it with the entity
// name, e.g. fmt.Errorf("subject %w", ErrNotFound).
var ErrNotFound = errors.New("not found")

// resolveUserID maps a Clerk ID to the internal user id. A missing row is
// ErrNotFound; anything else is a database failure.
func resolveUserID(ctx context.Context, db *pgxpool.Pool, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}
