package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/store"
)

// NoteRepo is a pgxpool-backed store.NoteRepo.
type NoteRepo struct {
	pool *pgxpool.Pool
}

// NewNoteRepo wraps an open pool.
func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Create(ctx context.Context, n store.Note) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, meeting_id, content, note_type, is_ai_generated, source_segment_ids, context, confidence, speaker_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.ID, n.MeetingID, n.Content, n.NoteType, n.IsAIGenerated, n.SourceSegmentIDs, n.Context, n.Confidence, n.SpeakerID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert note: %w", err)
	}
	return nil
}

func (r *NoteRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]store.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, meeting_id, content, note_type, is_ai_generated, source_segment_ids, context, confidence, speaker_id, created_at
		FROM notes WHERE meeting_id = $1 ORDER BY created_at
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list notes: %w", err)
	}
	defer rows.Close()

	var out []store.Note
	for rows.Next() {
		var n store.Note
		if err := rows.Scan(&n.ID, &n.MeetingID, &n.Content, &n.NoteType, &n.IsAIGenerated, &n.SourceSegmentIDs, &n.Context, &n.Confidence, &n.SpeakerID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
