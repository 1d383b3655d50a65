// Package events defines the nine event payloads the core emits
// (spec §6) and an in-process bus plus a coder/websocket-backed
// connection manager that fans them out to subscribed clients.
package events

// Type identifies one of the nine event kinds the core emits.
type Type string

const (
	TypeStatus               Type = "status"
	TypeSubject              Type = "subject"
	TypeConfidence           Type = "confidence"
	TypeCandidates           Type = "candidates"
	TypeRelevance            Type = "relevance"
	TypeBatchState           Type = "batchState"
	TypeError                Type = "error"
	TypePersisted            Type = "persisted"
	TypeFinalizationComplete Type = "finalizationComplete"
)

// Event is the envelope every emitted payload travels in. TimestampMs
// is unix-ms per spec §6.
type Event struct {
	Type        Type   `json:"type"`
	MeetingID   string `json:"meetingId,omitempty"`
	TimestampMs int64  `json:"timestampMs"`
	Payload     any    `json:"payload"`
}

// StatusPayload fires on every session state transition.
type StatusPayload struct {
	Status string `json:"status"`
}

// ConfidenceInfo is embedded in both SubjectPayload and
// ConfidencePayload (spec §6).
type ConfidenceInfo struct {
	Score          float64 `json:"score"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	DetectionCount int     `json:"detectionCount"`
}

// SubjectPayload carries the current subject plus its confidence.
type SubjectPayload struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Goal            string         `json:"goal"`
	ScopeKeywords   []string       `json:"scopeKeywords"`
	IsDraft         bool           `json:"isDraft"`
	Confidence      ConfidenceInfo `json:"confidence"`
}

// ConfidencePayload is the standalone confidence event.
type ConfidencePayload struct {
	ConfidenceInfo
	LastUpdatedMs int64 `json:"lastUpdated"`
}

// CandidateSummary is the observation-only shape of one candidate in
// a candidates event — the batch just produced, non-final.
type CandidateSummary struct {
	ID       string `json:"id"`
	ChunkID  string `json:"chunkId"`
	NoteType string `json:"noteType"`
	Content  string `json:"content"`
}

// CandidatesPayload carries the batch of candidates just extracted.
type CandidatesPayload struct {
	ChunkID    string             `json:"chunkId"`
	Candidates []CandidateSummary `json:"candidates"`
}

// RelevancePayload fires once per scored chunk.
type RelevancePayload struct {
	ChunkID       string  `json:"chunkId"`
	RelevanceType string  `json:"relevanceType"`
	Score         float64 `json:"score"`
	IsFinal       bool    `json:"isFinal"`
}

// BatchStatePayload reports the chunk-processing loop's current
// activity.
type BatchStatePayload struct {
	IsProcessing         bool   `json:"isProcessing"`
	PendingSegmentCount  int    `json:"pendingSegmentCount"`
	ChunksProcessed      int    `json:"chunksProcessed"`
	LastBatchStartTimeMs *int64 `json:"lastBatchStartTime,omitempty"`
	LastBatchCompleteMs  *int64 `json:"lastBatchCompleteTime,omitempty"`
}

// ErrorPayload reports a recoverable or fatal failure (spec §7).
type ErrorPayload struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// PersistedPayload fires after finalization writes notes/tasks.
type PersistedPayload struct {
	NotesCount int `json:"notesCount"`
	TasksCount int `json:"tasksCount"`
}

// FinalizationCompletePayload is the terminal event for a session.
type FinalizationCompletePayload struct {
	NotesCount    int `json:"notesCount"`
	TasksCount    int `json:"tasksCount"`
	FilteredCount int `json:"filteredCount"`
	FinalOutput   any `json:"finalOutput"`
	AuditTrail    any `json:"auditTrail"`
}
