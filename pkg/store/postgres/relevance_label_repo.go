package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/relevance"
)

// RelevanceLabelRepo is a pgxpool-backed store.RelevanceLabelRepo.
type RelevanceLabelRepo struct {
	pool *pgxpool.Pool
}

// NewRelevanceLabelRepo wraps an open pool.
func NewRelevanceLabelRepo(pool *pgxpool.Pool) *RelevanceLabelRepo {
	return &RelevanceLabelRepo{pool: pool}
}

func (r *RelevanceLabelRepo) Insert(ctx context.Context, label relevance.Label) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO relevance_labels (id, chunk_id, subject_id, relevance_type, score, reasoning, is_final, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, label.ID, label.ChunkID, label.SubjectID, string(label.Class), label.Score, label.Reasoning, label.IsFinal, label.CreatedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert relevance label: %w", err)
	}
	return nil
}

func (r *RelevanceLabelRepo) UpdateByID(ctx context.Context, label relevance.Label) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE relevance_labels
		SET subject_id = $2, relevance_type = $3, score = $4, reasoning = $5, is_final = $6
		WHERE id = $1
	`, label.ID, label.SubjectID, string(label.Class), label.Score, label.Reasoning, label.IsFinal)
	if err != nil {
		return fmt.Errorf("notecore/postgres: update relevance label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notecore/postgres: relevance label %s not found", label.ID)
	}
	return nil
}

func (r *RelevanceLabelRepo) GetByChunkID(ctx context.Context, chunkID string, final bool) (relevance.Label, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, chunk_id, subject_id, relevance_type, score, reasoning, is_final, created_at
		FROM relevance_labels WHERE chunk_id = $1 AND is_final = $2
	`, chunkID, final)

	var label relevance.Label
	var class string
	if err := row.Scan(&label.ID, &label.ChunkID, &label.SubjectID, &class, &label.Score, &label.Reasoning, &label.IsFinal, &label.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return relevance.Label{}, false, nil
		}
		return relevance.Label{}, false, fmt.Errorf("notecore/postgres: get relevance label: %w", err)
	}
	label.Class = relevance.Class(class)
	return label, true, nil
}

func (r *RelevanceLabelRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]relevance.Label, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.chunk_id, l.subject_id, l.relevance_type, l.score, l.reasoning, l.is_final, l.created_at
		FROM relevance_labels l
		JOIN chunks c ON c.id = l.chunk_id
		WHERE c.meeting_id = $1
		ORDER BY c.chunk_index, l.is_final
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list relevance labels: %w", err)
	}
	defer rows.Close()

	var out []relevance.Label
	for rows.Next() {
		var label relevance.Label
		var class string
		if err := rows.Scan(&label.ID, &label.ChunkID, &label.SubjectID, &class, &label.Score, &label.Reasoning, &label.IsFinal, &label.CreatedAt); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan relevance label: %w", err)
		}
		label.Class = relevance.Class(class)
		out = append(out, label)
	}
	return out, rows.Err()
}
