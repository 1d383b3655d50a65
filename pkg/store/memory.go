package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/subject"
)

// Memory is an in-process, mutex-guarded implementation of every
// repository interface in this package. It is the reference store
// used by cmd/notecore and by pkg/session's tests; it has no
// durability and is not meant for production use.
type Memory struct {
	mu sync.Mutex

	subjects        map[string]subject.Subject
	subjectHistory  map[string][]subject.History
	chunks          map[string][]chunkmodel.Chunk
	relevanceLabels map[string][]relevance.Label // keyed by meetingID; chunkID looked up by scan
	candidates      map[string][]candidate.Candidate
	sessions        map[string]Session
	notes           map[string][]Note
	tasks           map[string][]Task

	chunkMeeting map[string]string // chunkID -> meetingID, for relevance lookups
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		subjects:        make(map[string]subject.Subject),
		subjectHistory:  make(map[string][]subject.History),
		chunks:          make(map[string][]chunkmodel.Chunk),
		relevanceLabels: make(map[string][]relevance.Label),
		candidates:      make(map[string][]candidate.Candidate),
		sessions:        make(map[string]Session),
		notes:           make(map[string][]Note),
		tasks:           make(map[string][]Task),
		chunkMeeting:    make(map[string]string),
	}
}

// --- SubjectRepo ---

func (m *Memory) UpsertDraft(ctx context.Context, meetingID string, s subject.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[meetingID] = s
	return nil
}

func (m *Memory) Lock(ctx context.Context, meetingID string, s subject.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[meetingID] = s
	return nil
}

func (m *Memory) GetByMeetingID(ctx context.Context, meetingID string) (subject.Subject, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[meetingID]
	return s, ok, nil
}

// --- SubjectHistoryRepo ---

func (m *Memory) Append(ctx context.Context, meetingID string, h subject.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjectHistory[meetingID] = append(m.subjectHistory[meetingID], h)
	return nil
}

func (m *Memory) ListByMeetingID_SubjectHistory(ctx context.Context, meetingID string) ([]subject.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := append([]subject.History(nil), m.subjectHistory[meetingID]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DetectedAt.After(rows[j].DetectedAt) })
	return rows, nil
}

// --- ChunkRepo ---

func (m *Memory) InsertChunk(ctx context.Context, meetingID string, c chunkmodel.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[meetingID] = append(m.chunks[meetingID], c)
	m.chunkMeeting[c.ID] = meetingID
	return nil
}

func (m *Memory) ListByMeetingID_Chunk(ctx context.Context, meetingID string) ([]chunkmodel.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := append([]chunkmodel.Chunk(nil), m.chunks[meetingID]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ChunkIndex < rows[j].ChunkIndex })
	return rows, nil
}

// --- RelevanceLabelRepo ---

func (m *Memory) InsertLabel(ctx context.Context, label relevance.Label) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meetingID := m.chunkMeeting[label.ChunkID]
	m.relevanceLabels[meetingID] = append(m.relevanceLabels[meetingID], label)
	return nil
}

func (m *Memory) UpdateLabelByID(ctx context.Context, label relevance.Label) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meetingID := m.chunkMeeting[label.ChunkID]
	rows := m.relevanceLabels[meetingID]
	for i, row := range rows {
		if row.ID == label.ID {
			rows[i] = label
			return nil
		}
	}
	return fmt.Errorf("store: relevance label %s not found", label.ID)
}

func (m *Memory) GetLabelByChunkID(ctx context.Context, chunkID string, final bool) (relevance.Label, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meetingID := m.chunkMeeting[chunkID]
	for _, row := range m.relevanceLabels[meetingID] {
		if row.ChunkID == chunkID && row.IsFinal == final {
			return row, true, nil
		}
	}
	return relevance.Label{}, false, nil
}

func (m *Memory) ListLabelsByMeetingID(ctx context.Context, meetingID string) ([]relevance.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]relevance.Label(nil), m.relevanceLabels[meetingID]...), nil
}

// --- CandidateRepo ---

func (m *Memory) InsertCandidate(ctx context.Context, c candidate.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.MeetingID] = append(m.candidates[c.MeetingID], c)
	return nil
}

func (m *Memory) UpdateCandidateFinalizationFields(ctx context.Context, c candidate.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.candidates[c.MeetingID]
	for i, row := range rows {
		if row.ID == c.ID {
			rows[i] = c
			return nil
		}
	}
	return fmt.Errorf("store: candidate %s not found", c.ID)
}

func (m *Memory) ListCandidatesByMeetingID(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]candidate.Candidate(nil), m.candidates[meetingID]...), nil
}

func (m *Memory) ListIncludedCandidates(ctx context.Context, meetingID string) ([]candidate.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []candidate.Candidate
	for _, c := range m.candidates[meetingID] {
		if c.IncludedInOutput {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- SessionRepo ---

func (m *Memory) InsertSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) UpdateSessionStatus(ctx context.Context, sessionID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("store: session %s not found", sessionID)
	}
	s.Status = status
	m.sessions[sessionID] = s
	return nil
}

// --- NoteRepo ---

func (m *Memory) CreateNote(ctx context.Context, n Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.MeetingID] = append(m.notes[n.MeetingID], n)
	return nil
}

func (m *Memory) ListNotesByMeetingID(ctx context.Context, meetingID string) ([]Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Note(nil), m.notes[meetingID]...), nil
}

// --- TaskRepo ---

func (m *Memory) CreateTask(ctx context.Context, t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.MeetingID] = append(m.tasks[t.MeetingID], t)
	return nil
}

func (m *Memory) ListTasksByMeetingID(ctx context.Context, meetingID string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Task(nil), m.tasks[meetingID]...), nil
}
