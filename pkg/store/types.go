// Package store defines the repository interfaces the core consumes
// (spec §6) plus an in-memory reference implementation used by tests
// and the CLI demo. A pgx-backed implementation lives in
// pkg/store/postgres.
package store

import "time"

// Session is one meeting recording session (spec §3, implicit —
// referenced by SessionRepo).
type Session struct {
	ID        string
	MeetingID string
	Status    string
	StartedAt time.Time
	UpdatedAt time.Time
}

// Note is a persisted, finalized note of one of the mapped types
// (spec §4.8 step 5): key_point, decision, action_item, custom.
type Note struct {
	ID               string
	MeetingID        string
	Content          string
	NoteType         string
	IsAIGenerated    bool
	SourceSegmentIDs []string
	Context          string
	Confidence       float64
	SpeakerID        *string
	CreatedAt        time.Time
}

// Task is a persisted follow-up item created for every included action
// item and task candidate (spec §4.8 step 5).
type Task struct {
	ID          string
	MeetingID   string
	Title       string
	Description string
	Assignee    *string
	DueDate     *string
	Priority    string
	Status      string
	CreatedAt   time.Time
}
