package candidate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meetingcore/notecore/pkg/jsoncoerce"
	"github.com/meetingcore/notecore/pkg/llmclient"
	"github.com/meetingcore/notecore/pkg/relevance"
)

// maxItemsPerArray caps each of the five extracted arrays (spec §4.4).
const maxItemsPerArray = 5

const systemPrompt = `You extract meeting notes from one transcript chunk, given the
meeting's subject. Return a single JSON object with five arrays:
keyPoints, decisions, actionItems, tasks, otherNotes. Each entry in
keyPoints, decisions, tasks, and otherNotes has a "content" field.
Each entry in actionItems has "content", and optionally "assignee",
"deadline", "priority" (one of high, medium, low). Omit an array
entirely, or leave it empty, if the chunk has nothing of that kind.
Be generous: anything plausibly relevant to the subject belongs here,
even if uncertain — a later stage filters by strictness.`

type rawItem struct {
	Content string `json:"content"`
}

type rawActionItem struct {
	Content  string  `json:"content"`
	Assignee *string `json:"assignee"`
	Deadline *string `json:"deadline"`
	Priority *string `json:"priority"`
}

type rawResponse struct {
	KeyPoints   []rawItem       `json:"keyPoints"`
	Decisions   []rawItem       `json:"decisions"`
	ActionItems []rawActionItem `json:"actionItems"`
	Tasks       []rawItem       `json:"tasks"`
	OtherNotes  []rawItem       `json:"otherNotes"`
}

// ShouldExtract reports whether the Extractor should run for a chunk
// given its live relevance class (spec §4.4 Gating). hasSubject is
// false until the first successful subject detection.
func ShouldExtract(class relevance.Class, hasSubject bool) bool {
	if !hasSubject {
		return true
	}
	switch class {
	case relevance.InScopeImportant, relevance.InScopeMinor, relevance.Unclear:
		return true
	default:
		return false
	}
}

// Extractor pulls candidate notes out of a chunk via the LLM and
// validates any extracted action items (spec §4.4).
type Extractor struct {
	llm       llmclient.Provider
	validator *Validator
}

// NewExtractor creates an Extractor. validator may be nil only in
// tests that don't exercise action items.
func NewExtractor(llm llmclient.Provider, validator *Validator) *Extractor {
	return &Extractor{llm: llm, validator: validator}
}

// Extract invokes the LLM once for chunkContent and returns the
// accepted candidates, already intra-batch deduplicated and (for
// action items) validated. meetingID/chunkID/sourceSegmentIDs are
// stamped onto every candidate produced.
func (x *Extractor) Extract(ctx context.Context, meetingID, chunkID string, sourceSegmentIDs []string, title, goal string, keywords []string, chunkContent string, maxTokens int, temperature float64) ([]Candidate, error) {
	userPrompt := buildExtractPrompt(title, goal, keywords, chunkContent)

	completion, err := x.llm.ChatComplete(ctx, []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: systemPrompt},
		{Role: llmclient.RoleUser, Content: userPrompt},
	}, maxTokens, temperature)
	if err != nil {
		return nil, fmt.Errorf("candidate extractor: llm call failed: %w", err)
	}

	raw := jsoncoerce.DecodeOrZero[rawResponse](completion.Text())

	var accepted []Candidate
	var acceptedContents []string

	appendPlain := func(items []rawItem, noteType NoteType) {
		items = capItems(items)
		for _, it := range items {
			content := strings.TrimSpace(it.Content)
			if content == "" || isDuplicateOf(content, acceptedContents) {
				continue
			}
			acceptedContents = append(acceptedContents, content)
			accepted = append(accepted, newCandidate(meetingID, chunkID, sourceSegmentIDs, noteType, content))
		}
	}

	appendPlain(raw.KeyPoints, KeyPoint)
	appendPlain(raw.Decisions, Decision)

	for _, it := range capActionItems(raw.ActionItems) {
		content := strings.TrimSpace(it.Content)
		if content == "" || isDuplicateOf(content, acceptedContents) {
			continue
		}
		acceptedContents = append(acceptedContents, content)

		cand := newCandidate(meetingID, chunkID, sourceSegmentIDs, ActionItem, content)
		assignee := derefOrEmpty(it.Assignee)
		deadline := derefOrEmpty(it.Deadline)
		cand.Assignee = it.Assignee
		cand.Deadline = it.Deadline
		cand.Priority = priorityFromRaw(it.Priority)

		if x.validator != nil {
			verdict := x.validator.Validate(ctx, content, assignee, deadline, title, goal, keywords, chunkContent)
			if !verdict.Passed() {
				cand.NoteType = Task
				reason := ExclusionSummary(verdict)
				cand.ExclusionReason = &reason
			}
		}
		accepted = append(accepted, cand)
	}

	appendPlain(raw.Tasks, Task)
	appendPlain(raw.OtherNotes, OtherNote)

	return accepted, nil
}

func buildExtractPrompt(title, goal string, keywords []string, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject title: %s\n", title)
	fmt.Fprintf(&b, "Subject goal: %s\n", goal)
	fmt.Fprintf(&b, "Scope keywords: %s\n\n", strings.Join(keywords, ", "))
	b.WriteString("Transcript chunk:\n")
	b.WriteString(content)
	return b.String()
}

func capItems(items []rawItem) []rawItem {
	if len(items) > maxItemsPerArray {
		return items[:maxItemsPerArray]
	}
	return items
}

func capActionItems(items []rawActionItem) []rawActionItem {
	if len(items) > maxItemsPerArray {
		return items[:maxItemsPerArray]
	}
	return items
}

func newCandidate(meetingID, chunkID string, sourceSegmentIDs []string, noteType NoteType, content string) Candidate {
	return Candidate{
		ID:               uuid.New().String(),
		ChunkID:          chunkID,
		MeetingID:        meetingID,
		NoteType:         noteType,
		Content:          content,
		SourceSegmentIDs: sourceSegmentIDs,
		IsDuplicate:      false,
		IsFinal:          false,
		IncludedInOutput: false,
		CreatedAt:        time.Now(),
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func priorityFromRaw(raw *string) *Priority {
	if raw == nil {
		return nil
	}
	switch Priority(strings.ToLower(strings.TrimSpace(*raw))) {
	case PriorityHigh:
		p := PriorityHigh
		return &p
	case PriorityLow:
		p := PriorityLow
		return &p
	default:
		p := PriorityMedium
		return &p
	}
}
