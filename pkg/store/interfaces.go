package store

import (
	"context"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/subject"
)

// SubjectRepo persists the draft/locked subject for a meeting
// (spec §6). At most one row per meeting.
type SubjectRepo interface {
	UpsertDraft(ctx context.Context, meetingID string, s subject.Subject) error
	Lock(ctx context.Context, meetingID string, s subject.Subject) error
	GetByMeetingID(ctx context.Context, meetingID string) (subject.Subject, bool, error)
}

// SubjectHistoryRepo persists the append-only detection history
// (spec §6).
type SubjectHistoryRepo interface {
	Append(ctx context.Context, meetingID string, h subject.History) error
	ListByMeetingID(ctx context.Context, meetingID string) ([]subject.History, error) // ordered desc by DetectedAt
}

// ChunkRepo persists chunks in the order they were produced (spec §6).
type ChunkRepo interface {
	Insert(ctx context.Context, meetingID string, c chunkmodel.Chunk) error
	ListByMeetingID(ctx context.Context, meetingID string) ([]chunkmodel.Chunk, error) // ordered by ChunkIndex
}

// RelevanceLabelRepo persists relevance judgments (spec §6). At most
// one non-final and one final label per chunk.
type RelevanceLabelRepo interface {
	Insert(ctx context.Context, label relevance.Label) error
	UpdateByID(ctx context.Context, label relevance.Label) error
	GetByChunkID(ctx context.Context, chunkID string, final bool) (relevance.Label, bool, error)
	ListByMeetingID(ctx context.Context, meetingID string) ([]relevance.Label, error)
}

// CandidateRepo persists extracted candidates and their finalization
// outcome (spec §6).
type CandidateRepo interface {
	Insert(ctx context.Context, c candidate.Candidate) error
	UpdateFinalizationFields(ctx context.Context, c candidate.Candidate) error
	ListByMeetingID(ctx context.Context, meetingID string) ([]candidate.Candidate, error) // ordered by chunk, then creation
	ListIncluded(ctx context.Context, meetingID string) ([]candidate.Candidate, error)
}

// SessionRepo persists the session's lifecycle (spec §6).
type SessionRepo interface {
	Insert(ctx context.Context, s Session) error
	UpdateStatus(ctx context.Context, sessionID, status string) error
}

// NoteRepo persists finalized notes (spec §6).
type NoteRepo interface {
	Create(ctx context.Context, n Note) error
	ListByMeetingID(ctx context.Context, meetingID string) ([]Note, error)
}

// TaskRepo persists follow-up tasks created from action items
// (spec §6).
type TaskRepo interface {
	Create(ctx context.Context, t Task) error
	ListByMeetingID(ctx context.Context, meetingID string) ([]Task, error)
}
