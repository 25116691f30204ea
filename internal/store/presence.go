package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/techzara/platform/types"
)

// PresenceRepository handles persistence for presences. The presence row
// owns the relation to its user.
type PresenceRepository struct {
	db *sql.DB
}

func NewPresenceRepository(db *sql.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

const selectPresenceColumns = `
		SELECT id, user_id, checked_in_at, checked_out_at, note
		FROM presences`

func scanPresence(row rowScanner) (*types.Presence, error) {
	var presence types.Presence
	if err := row.Scan(
		&presence.ID,
		&presence.UserID,
		&presence.CheckedInAt,
		&presence.CheckedOutAt,
		&presence.Note,
	); err != nil {
		return nil, err
	}
	return &presence, nil
}

func (r *PresenceRepository) ListByUser(ctx context.Context, userID int) ([]*types.Presence, error) {
	byUser, err := r.listByUsers(ctx, []int{userID})
	if err != nil {
		return nil, err
	}
	presences := byUser[userID]
	if presences == nil {
		presences = []*types.Presence{}
	}
	return presences, nil
}

func (r *PresenceRepository) listByUsers(ctx context.Context, userIDs []int) (map[int][]*types.Presence, error) {
	query := selectPresenceColumns + `
		WHERE user_id = ANY($1)
		ORDER BY checked_in_at, id`
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, int64(id))
	}
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list presences: %w", err)
	}
	defer rows.Close()

	byUser := make(map[int][]*types.Presence, len(userIDs))
	for rows.Next() {
		presence, err := scanPresence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		byUser[presence.UserID] = append(byUser[presence.UserID], presence)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presences: %w", err)
	}
	return byUser, nil
}

func (r *PresenceRepository) Create(ctx context.Context, presence *types.Presence) (*types.Presence, error) {
	const query = `
		INSERT INTO presences (user_id, checked_in_at, checked_out_at, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		presence.UserID,
		presence.CheckedInAt,
		presence.CheckedOutAt,
		presence.Note,
	).Scan(&presence.ID); err != nil {
		return nil, fmt.Errorf("insert presence: %w", err)
	}
	return presence, nil
}

// Delete removes the presence with id if it belongs to userID.
func (r *PresenceRepository) Delete(ctx context.Context, userID, id int) error {
	const query = `DELETE FROM presences WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete presence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
