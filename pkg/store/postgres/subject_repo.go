package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/subject"
)

// SubjectRepo is a pgxpool-backed store.SubjectRepo.
type SubjectRepo struct {
	pool *pgxpool.Pool
}

// NewSubjectRepo wraps an open pool.
func NewSubjectRepo(pool *pgxpool.Pool) *SubjectRepo {
	return &SubjectRepo{pool: pool}
}

const upsertSubjectSQL = `
INSERT INTO subjects (meeting_id, id, title, goal, scope_keywords, status, strictness_mode, confidence_score, locked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (meeting_id) DO UPDATE SET
    id = EXCLUDED.id,
    title = EXCLUDED.title,
    goal = EXCLUDED.goal,
    scope_keywords = EXCLUDED.scope_keywords,
    status = EXCLUDED.status,
    strictness_mode = EXCLUDED.strictness_mode,
    confidence_score = EXCLUDED.confidence_score,
    locked_at = EXCLUDED.locked_at
`

func (r *SubjectRepo) UpsertDraft(ctx context.Context, meetingID string, s subject.Subject) error {
	_, err := r.pool.Exec(ctx, upsertSubjectSQL,
		meetingID, s.ID, s.Title, s.Goal, s.ScopeKeywords, string(s.Status), s.StrictnessMode, s.ConfidenceScore, s.LockedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: upsert draft subject: %w", err)
	}
	return nil
}

// Lock persists the locked subject; it is the same upsert as
// UpsertDraft since both are last-write-wins on one row per meeting
// and the Session Controller only ever calls Lock after the subject
// status has already flipped (spec §4.2 Locking).
func (r *SubjectRepo) Lock(ctx context.Context, meetingID string, s subject.Subject) error {
	return r.UpsertDraft(ctx, meetingID, s)
}

func (r *SubjectRepo) GetByMeetingID(ctx context.Context, meetingID string) (subject.Subject, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, goal, scope_keywords, status, strictness_mode, confidence_score, locked_at
		FROM subjects WHERE meeting_id = $1
	`, meetingID)

	var s subject.Subject
	var status string
	if err := row.Scan(&s.ID, &s.Title, &s.Goal, &s.ScopeKeywords, &status, &s.StrictnessMode, &s.ConfidenceScore, &s.LockedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subject.Subject{}, false, nil
		}
		return subject.Subject{}, false, fmt.Errorf("notecore/postgres: get subject: %w", err)
	}
	s.Status = subject.Status(status)
	return s, true, nil
}
