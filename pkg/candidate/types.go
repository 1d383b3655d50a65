// Package candidate implements the Candidate Extractor (spec §4.4), the
// Action-Item Validator (spec §4.5), and near-duplicate detection
// (spec §4.6).
package candidate

import "time"

// NoteType is the kind of note a candidate was extracted as.
type NoteType string

const (
	KeyPoint   NoteType = "key_point"
	Decision   NoteType = "decision"
	ActionItem NoteType = "action_item"
	Task       NoteType = "task"
	OtherNote  NoteType = "other_note"
)

// Priority is the optional urgency an action item or task carries.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Candidate is one extracted note awaiting finalization (spec §3).
// Created by the Extractor; mutated only by the Finalizer to set
// IsFinal/IsDuplicate/IncludedInOutput/ExclusionReason.
type Candidate struct {
	ID      string
	ChunkID string
	MeetingID string

	NoteType NoteType
	Content  string

	SpeakerID *string
	Assignee  *string
	Deadline  *string
	Priority  *Priority

	RelevanceType  *string
	RelevanceScore *float64

	IsDuplicate       bool
	IsFinal           bool
	IncludedInOutput  bool
	ExclusionReason   *string
	SourceSegmentIDs  []string

	CreatedAt   time.Time
	FinalizedAt *time.Time
}
