package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/subject"
)

// SubjectHistoryRepo is a pgxpool-backed store.SubjectHistoryRepo.
type SubjectHistoryRepo struct {
	pool *pgxpool.Pool
}

// NewSubjectHistoryRepo wraps an open pool.
func NewSubjectHistoryRepo(pool *pgxpool.Pool) *SubjectHistoryRepo {
	return &SubjectHistoryRepo{pool: pool}
}

func (r *SubjectHistoryRepo) Append(ctx context.Context, meetingID string, h subject.History) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subject_history (id, meeting_id, title, goal, keywords, confidence, detected_at, chunk_window_start, chunk_window_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, h.ID, meetingID, h.Title, h.Goal, h.Keywords, h.Confidence, h.DetectedAt, h.ChunkWindowStart, h.ChunkWindowEnd)
	if err != nil {
		return fmt.Errorf("notecore/postgres: append subject history: %w", err)
	}
	return nil
}

func (r *SubjectHistoryRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]subject.History, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, goal, keywords, confidence, detected_at, chunk_window_start, chunk_window_end
		FROM subject_history WHERE meeting_id = $1 ORDER BY detected_at DESC
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list subject history: %w", err)
	}
	defer rows.Close()

	var out []subject.History
	for rows.Next() {
		var h subject.History
		if err := rows.Scan(&h.ID, &h.Title, &h.Goal, &h.Keywords, &h.Confidence, &h.DetectedAt, &h.ChunkWindowStart, &h.ChunkWindowEnd); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan subject history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
