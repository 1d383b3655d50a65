package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/candidate"
)

// CandidateRepo is a pgxpool-backed store.CandidateRepo.
type CandidateRepo struct {
	pool *pgxpool.Pool
}

// NewCandidateRepo wraps an open pool.
func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

func (r *CandidateRepo) Insert(ctx context.Context, c candidate.Candidate) error {
	var priority *string
	if c.Priority != nil {
		p := string(*c.Priority)
		priority = &p
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO candidates (
			id, chunk_id, meeting_id, note_type, content, speaker_id, assignee, deadline,
			priority, relevance_type, relevance_score, is_duplicate, is_final,
			included_in_output, exclusion_reason, source_segment_ids, created_at, finalized_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, c.ID, c.ChunkID, c.MeetingID, string(c.NoteType), c.Content, c.SpeakerID, c.Assignee, c.Deadline,
		priority, c.RelevanceType, c.RelevanceScore, c.IsDuplicate, c.IsFinal,
		c.IncludedInOutput, c.ExclusionReason, c.SourceSegmentIDs, c.CreatedAt, c.FinalizedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert candidate: %w", err)
	}
	return nil
}

func (r *CandidateRepo) UpdateFinalizationFields(ctx context.Context, c candidate.Candidate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE candidates
		SET relevance_type = $2, relevance_score = $3, is_duplicate = $4, is_final = $5,
		    included_in_output = $6, exclusion_reason = $7, finalized_at = $8
		WHERE id = $1
	`, c.ID, c.RelevanceType, c.RelevanceScore, c.IsDuplicate, c.IsFinal,
		c.IncludedInOutput, c.ExclusionReason, c.FinalizedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: update candidate finalization fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notecore/postgres: candidate %s not found", c.ID)
	}
	return nil
}

func (r *CandidateRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	return r.query(ctx, `
		SELECT c.id, c.chunk_id, c.meeting_id, c.note_type, c.content, c.speaker_id, c.assignee, c.deadline,
		       c.priority, c.relevance_type, c.relevance_score, c.is_duplicate, c.is_final,
		       c.included_in_output, c.exclusion_reason, c.source_segment_ids, c.created_at, c.finalized_at
		FROM candidates c
		JOIN chunks h ON h.id = c.chunk_id
		WHERE c.meeting_id = $1
		ORDER BY h.chunk_index, c.created_at
	`, meetingID)
}

func (r *CandidateRepo) ListIncluded(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	return r.query(ctx, `
		SELECT c.id, c.chunk_id, c.meeting_id, c.note_type, c.content, c.speaker_id, c.assignee, c.deadline,
		       c.priority, c.relevance_type, c.relevance_score, c.is_duplicate, c.is_final,
		       c.included_in_output, c.exclusion_reason, c.source_segment_ids, c.created_at, c.finalized_at
		FROM candidates c
		JOIN chunks h ON h.id = c.chunk_id
		WHERE c.meeting_id = $1 AND c.included_in_output = true
		ORDER BY h.chunk_index, c.created_at
	`, meetingID)
}

func (r *CandidateRepo) query(ctx context.Context, sql string, meetingID string) ([]candidate.Candidate, error) {
	rows, err := r.pool.Query(ctx, sql, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list candidates: %w", err)
	}
	defer rows.Close()

	var out []candidate.Candidate
	for rows.Next() {
		var c candidate.Candidate
		var noteType string
		var priority *string
		if err := rows.Scan(&c.ID, &c.ChunkID, &c.MeetingID, &noteType, &c.Content, &c.SpeakerID, &c.Assignee, &c.Deadline,
			&priority, &c.RelevanceType, &c.RelevanceScore, &c.IsDuplicate, &c.IsFinal,
			&c.IncludedInOutput, &c.ExclusionReason, &c.SourceSegmentIDs, &c.CreatedAt, &c.FinalizedAt); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan candidate: %w", err)
		}
		c.NoteType = candidate.NoteType(noteType)
		if priority != nil {
			p := candidate.Priority(*priority)
			c.Priority = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
