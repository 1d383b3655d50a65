package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/store"
)

// SessionRepo is a pgxpool-backed store.SessionRepo.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepo wraps an open pool.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Insert(ctx context.Context, s store.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, meeting_id, status, started_at, updated_at) VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.MeetingID, s.Status, s.StartedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, sessionID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1
	`, sessionID, status)
	if err != nil {
		return fmt.Errorf("notecore/postgres: update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notecore/postgres: session %s not found", sessionID)
	}
	return nil
}
