package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/chunkmodel"
)

// ChunkRepo is a pgxpool-backed store.ChunkRepo.
type ChunkRepo struct {
	pool *pgxpool.Pool
}

// NewChunkRepo wraps an open pool.
func NewChunkRepo(pool *pgxpool.Pool) *ChunkRepo {
	return &ChunkRepo{pool: pool}
}

func (r *ChunkRepo) Insert(ctx context.Context, meetingID string, c chunkmodel.Chunk) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chunks (id, meeting_id, chunk_index, window_start_ms, window_end_ms, content, speaker_ids, segment_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, meetingID, c.ChunkIndex, c.WindowStartMs, c.WindowEndMs, c.Content, c.SpeakerIDs, c.SegmentIDs)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert chunk: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]chunkmodel.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, chunk_index, window_start_ms, window_end_ms, content, speaker_ids, segment_ids
		FROM chunks WHERE meeting_id = $1 ORDER BY chunk_index
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list chunks: %w", err)
	}
	defer rows.Close()

	var out []chunkmodel.Chunk
	for rows.Next() {
		var c chunkmodel.Chunk
		if err := rows.Scan(&c.ID, &c.ChunkIndex, &c.WindowStartMs, &c.WindowEndMs, &c.Content, &c.SpeakerIDs, &c.SegmentIDs); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
