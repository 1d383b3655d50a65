package store

import (
	"context"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/subject"
)

// Memory exposes one differently-named method per repository concern
// (InsertChunk, InsertCandidate, ...) because several repository
// interfaces share a method name (ListByMeetingID) with incompatible
// signatures. The thin adapters below give each interface its exact
// method set over the same underlying Memory.

// SubjectRepo adapts Memory to the SubjectRepo interface.
type subjectRepoAdapter struct{ m *Memory }

func (a subjectRepoAdapter) UpsertDraft(ctx context.Context, meetingID string, s subject.Subject) error {
	return a.m.UpsertDraft(ctx, meetingID, s)
}
func (a subjectRepoAdapter) Lock(ctx context.Context, meetingID string, s subject.Subject) error {
	return a.m.Lock(ctx, meetingID, s)
}
func (a subjectRepoAdapter) GetByMeetingID(ctx context.Context, meetingID string) (subject.Subject, bool, error) {
	return a.m.GetByMeetingID(ctx, meetingID)
}

type subjectHistoryRepoAdapter struct{ m *Memory }

func (a subjectHistoryRepoAdapter) Append(ctx context.Context, meetingID string, h subject.History) error {
	return a.m.Append(ctx, meetingID, h)
}
func (a subjectHistoryRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]subject.History, error) {
	return a.m.ListByMeetingID_SubjectHistory(ctx, meetingID)
}

type chunkRepoAdapter struct{ m *Memory }

func (a chunkRepoAdapter) Insert(ctx context.Context, meetingID string, c chunkmodel.Chunk) error {
	return a.m.InsertChunk(ctx, meetingID, c)
}
func (a chunkRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]chunkmodel.Chunk, error) {
	return a.m.ListByMeetingID_Chunk(ctx, meetingID)
}

type relevanceLabelRepoAdapter struct{ m *Memory }

func (a relevanceLabelRepoAdapter) Insert(ctx context.Context, label relevance.Label) error {
	return a.m.InsertLabel(ctx, label)
}
func (a relevanceLabelRepoAdapter) UpdateByID(ctx context.Context, label relevance.Label) error {
	return a.m.UpdateLabelByID(ctx, label)
}
func (a relevanceLabelRepoAdapter) GetByChunkID(ctx context.Context, chunkID string, final bool) (relevance.Label, bool, error) {
	return a.m.GetLabelByChunkID(ctx, chunkID, final)
}
func (a relevanceLabelRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]relevance.Label, error) {
	return a.m.ListLabelsByMeetingID(ctx, meetingID)
}

type candidateRepoAdapter struct{ m *Memory }

func (a candidateRepoAdapter) Insert(ctx context.Context, c candidate.Candidate) error {
	return a.m.InsertCandidate(ctx, c)
}
func (a candidateRepoAdapter) UpdateFinalizationFields(ctx context.Context, c candidate.Candidate) error {
	return a.m.UpdateCandidateFinalizationFields(ctx, c)
}
func (a candidateRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	return a.m.ListCandidatesByMeetingID(ctx, meetingID)
}
func (a candidateRepoAdapter) ListIncluded(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	return a.m.ListIncludedCandidates(ctx, meetingID)
}

type sessionRepoAdapter struct{ m *Memory }

func (a sessionRepoAdapter) Insert(ctx context.Context, s Session) error {
	return a.m.InsertSession(ctx, s)
}
func (a sessionRepoAdapter) UpdateStatus(ctx context.Context, sessionID, status string) error {
	return a.m.UpdateSessionStatus(ctx, sessionID, status)
}

type noteRepoAdapter struct{ m *Memory }

func (a noteRepoAdapter) Create(ctx context.Context, n Note) error { return a.m.CreateNote(ctx, n) }
func (a noteRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]Note, error) {
	return a.m.ListNotesByMeetingID(ctx, meetingID)
}

type taskRepoAdapter struct{ m *Memory }

func (a taskRepoAdapter) Create(ctx context.Context, t Task) error { return a.m.CreateTask(ctx, t) }
func (a taskRepoAdapter) ListByMeetingID(ctx context.Context, meetingID string) ([]Task, error) {
	return a.m.ListTasksByMeetingID(ctx, meetingID)
}

// Repos bundles every repository interface backed by one shared
// Memory instance (spec §6, all repositories consumed by the Session
// Controller and Finalizer).
type Repos struct {
	Subjects        SubjectRepo
	SubjectHistory  SubjectHistoryRepo
	Chunks          ChunkRepo
	RelevanceLabels RelevanceLabelRepo
	Candidates      CandidateRepo
	Sessions        SessionRepo
	Notes           NoteRepo
	Tasks           TaskRepo
}

// NewMemoryRepos builds a Repos bundle backed by a single fresh Memory
// store, the reference wiring used by cmd/notecore.
func NewMemoryRepos() Repos {
	m := NewMemory()
	return Repos{
		Subjects:        subjectRepoAdapter{m},
		SubjectHistory:  subjectHistoryRepoAdapter{m},
		Chunks:          chunkRepoAdapter{m},
		RelevanceLabels: relevanceLabelRepoAdapter{m},
		Candidates:      candidateRepoAdapter{m},
		Sessions:        sessionRepoAdapter{m},
		Notes:           noteRepoAdapter{m},
		Tasks:           taskRepoAdapter{m},
	}
}
