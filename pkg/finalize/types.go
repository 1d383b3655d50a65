// Package finalize implements the Finalizer (spec §4.8): the end-of-meeting
// workflow that re-scores every chunk against the locked subject,
// deduplicates and filters candidates by strictness, persists notes and
// tasks, and synthesizes the structured output and audit trail.
//
// The Finalizer picks up after the Session Controller has already
// flushed the remainder and locked the subject — steps 1 and 2 of the
// five-step workflow need the Subject Estimator, which only the
// controller holds. The Finalizer itself runs steps 3 through 5, reading
// the locked subject back from the repositories.
package finalize

import (
	"time"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/subject"
)

// NoteSummary is one included candidate's observation-facing shape in
// the structured output (spec §3 StructuredOutput).
type NoteSummary struct {
	CandidateID string
	ChunkID     string
	Content     string
	SpeakerID   *string
	Assignee    *string
	Deadline    *string
	Priority    *string
}

// StructuredOutput buckets included candidates by their original note
// type (spec §3, §4.8 step 5). Produced exactly once per finalization.
type StructuredOutput struct {
	Subject     subject.Subject
	KeyPoints   []NoteSummary
	Decisions   []NoteSummary
	ActionItems []NoteSummary
	Tasks       []NoteSummary
	OtherNotes  []NoteSummary
}

// RelevanceChange records one chunk's draft-vs-final relevance outcome
// for the audit trail (spec §4.8 step 3). Draft fields are nil if the
// chunk never received a live-pass label (e.g. its live-pass relevance
// call failed); Final fields are nil if the finalization
// re-check's LLM call failed (spec §4.8 failure semantics).
type RelevanceChange struct {
	ChunkID        string
	DraftRelevance *string
	DraftScore     *float64
	FinalRelevance *string
	FinalScore     *float64
}

// Totals summarizes the finalization run for the audit trail.
type Totals struct {
	ChunksRescored      int
	ChunksRescoreFailed int
	CandidatesTotal     int
	CandidatesIncluded  int
	CandidatesDuplicate int
	CandidatesFiltered  int
	NotesCreated        int
	TasksCreated        int
}

// AuditTrail is the full record of a finalization run (spec §3
// AuditTrail, §4.8 step 5).
type AuditTrail struct {
	SessionID           string
	MeetingID           string
	LockedSubject       subject.Subject
	DraftSubjectHistory []subject.History
	RelevanceChanges    []RelevanceChange
	FilteredCandidates  []candidate.Candidate
	IncludedCandidates  []candidate.Candidate
	Totals              Totals
	FinalizedAt         time.Time
	StrictnessMode      config.StrictnessMode
}

// Result bundles the two artifacts one Finalize call produces.
type Result struct {
	Output StructuredOutput
	Audit  AuditTrail
}
