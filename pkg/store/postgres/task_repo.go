package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetingcore/notecore/pkg/store"
)

// TaskRepo is a pgxpool-backed store.TaskRepo.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo wraps an open pool.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t store.Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, meeting_id, title, description, assignee, due_date, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.MeetingID, t.Title, t.Description, t.Assignee, t.DueDate, t.Priority, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("notecore/postgres: insert task: %w", err)
	}
	return nil
}

func (r *TaskRepo) ListByMeetingID(ctx context.Context, meetingID string) ([]store.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, meeting_id, title, description, assignee, due_date, priority, status, created_at
		FROM tasks WHERE meeting_id = $1 ORDER BY created_at
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("notecore/postgres: list tasks: %w", err)
	}
	defer rows.Close()

	var out []store.Task
	for rows.Next() {
		var t store.Task
		if err := rows.Scan(&t.ID, &t.MeetingID, &t.Title, &t.Description, &t.Assignee, &t.DueDate, &t.Priority, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("notecore/postgres: scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
