package finalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/events"
	"github.com/meetingcore/notecore/pkg/llmclient/llmtest"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/store"
	"github.com/meetingcore/notecore/pkg/subject"
)

const meetingID = "meeting-1"

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.StrictnessMode = config.StrictnessBalanced
	cfg.MaxTokens = 1024
	cfg.Temperature = 0.2
	return cfg
}

func seedLockedSubject(t *testing.T, repos store.Repos) subject.Subject {
	t.Helper()
	s := subject.Subject{
		ID:            "subject-1",
		Title:         "Budget Planning",
		Goal:          "finalize Q3 budget",
		ScopeKeywords: []string{"budget", "finance"},
		Status:        subject.StatusLocked,
	}
	require.NoError(t, repos.Subjects.Lock(context.Background(), meetingID, s))
	return s
}

func seedChunk(t *testing.T, repos store.Repos, id string, index int, content string) {
	t.Helper()
	require.NoError(t, repos.Chunks.Insert(context.Background(), meetingID, chunkmodel.Chunk{
		ID: id, ChunkIndex: index, Content: content,
		WindowStartMs: int64(index * 1000), WindowEndMs: int64(index*1000 + 500),
	}))
}

func seedDraftLabel(t *testing.T, repos store.Repos, chunkID string, class relevance.Class, score float64) {
	t.Helper()
	require.NoError(t, repos.RelevanceLabels.Insert(context.Background(), relevance.Label{
		ID: "draft-" + chunkID, ChunkID: chunkID, Class: class, Score: score,
		IsFinal: false, CreatedAt: time.Now(),
	}))
}

func seedCandidate(t *testing.T, repos store.Repos, c candidate.Candidate) {
	t.Helper()
	c.MeetingID = meetingID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	require.NoError(t, repos.Candidates.Insert(context.Background(), c))
}

func TestFinalize_RescoresChunksAndPersistsIncludedCandidates(t *testing.T) {
	repos := store.NewMemoryRepos()
	locked := seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "We reviewed the Q3 budget numbers.")
	seedDraftLabel(t, repos, "chunk-1", relevance.InScopeMinor, 0.4)
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.KeyPoint,
		Content: "Q3 numbers were reviewed",
	})

	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.95, "reasoning": "directly on topic"}`)

	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	err := f.Finalize(context.Background(), meetingID, "session-1")
	require.NoError(t, err)

	result, ok := f.Result(meetingID)
	require.True(t, ok)

	require.Len(t, result.Audit.RelevanceChanges, 1)
	change := result.Audit.RelevanceChanges[0]
	require.NotNil(t, change.DraftRelevance)
	assert.Equal(t, "in_scope_minor", *change.DraftRelevance)
	require.NotNil(t, change.FinalRelevance)
	assert.Equal(t, "in_scope_important", *change.FinalRelevance)

	assert.Equal(t, 1, result.Audit.Totals.ChunksRescored)
	assert.Equal(t, 0, result.Audit.Totals.ChunksRescoreFailed)

	require.Len(t, result.Output.KeyPoints, 1)
	assert.Equal(t, "Q3 numbers were reviewed", result.Output.KeyPoints[0].Content)
	assert.Equal(t, locked.Title, result.Output.Subject.Title)

	notes, err := repos.Notes.ListByMeetingID(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "key_point", notes[0].NoteType)

	assert.Equal(t, 1, result.Audit.Totals.NotesCreated)
	assert.Equal(t, 0, result.Audit.Totals.TasksCreated)
}

func TestFinalize_RescoreFailureLeavesDraftLabelAndContinues(t *testing.T) {
	repos := store.NewMemoryRepos()
	seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "Some unrelated chatter.")
	seedDraftLabel(t, repos, "chunk-1", relevance.Unclear, 0.5)
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.KeyPoint,
		Content: "a note from the chunk",
	})

	llm := llmtest.NewScriptedClient()
	llm.Enqueue(llmtest.ScriptEntry{Err: errors.New("provider unavailable")})

	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	err := f.Finalize(context.Background(), meetingID, "session-1")
	require.NoError(t, err)

	result, _ := f.Result(meetingID)
	require.Len(t, result.Audit.RelevanceChanges, 1)
	change := result.Audit.RelevanceChanges[0]
	assert.Nil(t, change.FinalRelevance)
	assert.Equal(t, 1, result.Audit.Totals.ChunksRescoreFailed)

	// No final label was written, so the candidate's chunk has no final
	// relevance on record; finalization must conservatively include it.
	assert.Len(t, result.Output.KeyPoints, 1)
	assert.Len(t, result.Audit.IncludedCandidates, 1)
}

func TestFinalize_GlobalDuplicateIsExcludedRegardlessOfRelevance(t *testing.T) {
	repos := store.NewMemoryRepos()
	seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "We reviewed the Q3 budget numbers.")
	seedChunk(t, repos, "chunk-2", 1, "We reviewed the Q3 budget numbers again.")
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.KeyPoint,
		Content: "The Q3 budget numbers were reviewed in detail today",
	})
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-2", ChunkID: "chunk-2", NoteType: candidate.KeyPoint,
		Content: "The Q3 budget numbers were reviewed in detail today",
	})

	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.9, "reasoning": ""}`)
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.9, "reasoning": ""}`)

	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	require.NoError(t, f.Finalize(context.Background(), meetingID, "session-1"))

	result, _ := f.Result(meetingID)
	assert.Len(t, result.Audit.IncludedCandidates, 1)
	require.Len(t, result.Audit.FilteredCandidates, 1)
	require.NotNil(t, result.Audit.FilteredCandidates[0].ExclusionReason)
	assert.Equal(t, "duplicate", *result.Audit.FilteredCandidates[0].ExclusionReason)
	assert.Equal(t, 1, result.Audit.Totals.CandidatesDuplicate)
}

func TestFinalize_StrictnessFiltersMinorCandidatesInStrictMode(t *testing.T) {
	repos := store.NewMemoryRepos()
	seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "A tangential remark about lunch.")
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.KeyPoint,
		Content: "someone mentioned lunch plans",
	})

	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_minor", "score": 0.35, "reasoning": ""}`)

	classifier := relevance.New(llm)
	bus := events.NewBus()
	cfg := testConfig()
	cfg.StrictnessMode = config.StrictnessStrict
	f := New(classifier, repos, bus, cfg)

	require.NoError(t, f.Finalize(context.Background(), meetingID, "session-1"))

	result, _ := f.Result(meetingID)
	assert.Empty(t, result.Audit.IncludedCandidates)
	require.Len(t, result.Audit.FilteredCandidates, 1)
	assert.NotNil(t, result.Audit.FilteredCandidates[0].ExclusionReason)
}

func TestFinalize_ActionItemWithAssigneeAndDeadlineCreatesTaskAndFormatsContent(t *testing.T) {
	repos := store.NewMemoryRepos()
	seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "Alice will send the report by Friday.")

	assignee := "Alice"
	deadline := "Friday"
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.ActionItem,
		Content: "Send the report", Assignee: &assignee, Deadline: &deadline,
	})

	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.9, "reasoning": ""}`)

	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	require.NoError(t, f.Finalize(context.Background(), meetingID, "session-1"))

	tasks, err := repos.Tasks.ListByMeetingID(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "pending", tasks[0].Status)
	assert.Equal(t, "medium", tasks[0].Priority)

	notes, err := repos.Notes.ListByMeetingID(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "action_item", notes[0].NoteType)
	assert.Contains(t, notes[0].Content, "[Alice]")
	assert.Contains(t, notes[0].Content, "Due: Friday")

	result, _ := f.Result(meetingID)
	require.Len(t, result.Output.ActionItems, 1)
	assert.Empty(t, result.Output.Tasks)
}

func TestFinalize_TaskCandidateMapsToActionItemNoteButStaysInTasksBucket(t *testing.T) {
	repos := store.NewMemoryRepos()
	seedLockedSubject(t, repos)
	seedChunk(t, repos, "chunk-1", 0, "Someone should follow up on vendor pricing.")
	seedCandidate(t, repos, candidate.Candidate{
		ID: "cand-1", ChunkID: "chunk-1", NoteType: candidate.Task,
		Content: "Follow up on vendor pricing",
	})

	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.8, "reasoning": ""}`)

	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	require.NoError(t, f.Finalize(context.Background(), meetingID, "session-1"))

	notes, err := repos.Notes.ListByMeetingID(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "action_item", notes[0].NoteType)

	tasks, err := repos.Tasks.ListByMeetingID(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	result, _ := f.Result(meetingID)
	require.Len(t, result.Output.Tasks, 1)
	assert.Empty(t, result.Output.ActionItems)
}

func TestFinalize_NoSubjectOnRecordIsError(t *testing.T) {
	repos := store.NewMemoryRepos()
	llm := llmtest.NewScriptedClient()
	classifier := relevance.New(llm)
	bus := events.NewBus()
	f := New(classifier, repos, bus, testConfig())

	err := f.Finalize(context.Background(), meetingID, "session-1")
	assert.Error(t, err)
}
