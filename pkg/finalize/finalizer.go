package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/events"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/store"
	"github.com/meetingcore/notecore/pkg/subject"
)

// Finalizer runs steps 3-5 of the end-of-meeting workflow (spec §4.8):
// final relevance re-check, candidate finalization (dedup + strictness
// filter), and persisting notes/tasks plus the structured output and
// audit trail. Steps 1 (flush remainder) and 2 (lock subject) run in
// pkg/session.Controller.StopSession, which alone holds the live Subject
// Estimator.
type Finalizer struct {
	classifier *relevance.Classifier
	repos      store.Repos
	sink       events.Sink
	cfg        *config.Config

	mu      sync.Mutex
	results map[string]Result // meetingID -> last Result, for callers that want it after Finalize returns
}

// New creates a Finalizer. classifier is re-run against the locked
// subject for every chunk (spec §4.8 step 3).
func New(classifier *relevance.Classifier, repos store.Repos, sink events.Sink, cfg *config.Config) *Finalizer {
	return &Finalizer{
		classifier: classifier,
		repos:      repos,
		sink:       sink,
		cfg:        cfg,
		results:    make(map[string]Result),
	}
}

// Result returns the last finalization result recorded for meetingID.
func (f *Finalizer) Result(meetingID string) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[meetingID]
	return r, ok
}

// Finalize implements pkg/session.Finalizer. It assumes the subject has
// already been locked and persisted by the caller.
func (f *Finalizer) Finalize(ctx context.Context, meetingID, sessionID string) error {
	lockedSubject, ok, err := f.repos.Subjects.GetByMeetingID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("finalize: load locked subject: %w", err)
	}
	if !ok {
		return fmt.Errorf("finalize: no subject on record for meeting %s", meetingID)
	}

	draftHistory, err := f.repos.SubjectHistory.ListByMeetingID(ctx, meetingID)
	if err != nil {
		slog.Error("finalize: list subject history failed", "meeting_id", meetingID, "error", err)
	}

	changes, totals, err := f.rescoreChunks(ctx, meetingID, lockedSubject)
	if err != nil {
		return err
	}

	included, filtered, dupTotals, err := f.finalizeCandidates(ctx, meetingID)
	if err != nil {
		return err
	}
	totals.CandidatesTotal = dupTotals.CandidatesTotal
	totals.CandidatesDuplicate = dupTotals.CandidatesDuplicate
	totals.CandidatesIncluded = len(included)
	totals.CandidatesFiltered = len(filtered)

	output, notesCreated, tasksCreated, err := f.persistOutputs(ctx, meetingID, lockedSubject, included)
	if err != nil {
		return err
	}
	totals.NotesCreated = notesCreated
	totals.TasksCreated = tasksCreated

	f.sink.Emit(events.Event{
		Type:        events.TypePersisted,
		MeetingID:   meetingID,
		TimestampMs: time.Now().UnixMilli(),
		Payload:     events.PersistedPayload{NotesCount: notesCreated, TasksCount: tasksCreated},
	})

	finalizedAt := time.Now()
	audit := AuditTrail{
		SessionID:           sessionID,
		MeetingID:           meetingID,
		LockedSubject:       lockedSubject,
		DraftSubjectHistory: draftHistory,
		RelevanceChanges:    changes,
		FilteredCandidates:  filtered,
		IncludedCandidates:  included,
		Totals:              totals,
		FinalizedAt:         finalizedAt,
		StrictnessMode:      f.cfg.StrictnessMode,
	}
	result := Result{Output: output, Audit: audit}

	f.mu.Lock()
	f.results[meetingID] = result
	f.mu.Unlock()

	f.sink.Emit(events.Event{
		Type:        events.TypeFinalizationComplete,
		MeetingID:   meetingID,
		TimestampMs: finalizedAt.UnixMilli(),
		Payload: events.FinalizationCompletePayload{
			NotesCount:    notesCreated,
			TasksCount:    tasksCreated,
			FilteredCount: len(filtered),
			FinalOutput:   output,
			AuditTrail:    audit,
		},
	})

	return nil
}

// rescoreChunks implements spec §4.8 step 3: re-invoke the Relevance
// Classifier against the locked subject for every chunk, upsert an
// isFinal=true label, and record the draft-vs-final change. An LLM
// failure leaves the draft label in place and is recorded as a change
// with no final relevance (spec §4.8 failure semantics).
func (f *Finalizer) rescoreChunks(ctx context.Context, meetingID string, locked subject.Subject) ([]RelevanceChange, Totals, error) {
	chunks, err := f.repos.Chunks.ListByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, Totals{}, fmt.Errorf("finalize: list chunks: %w", err)
	}

	var changes []RelevanceChange
	var totals Totals

	for _, chunk := range chunks {
		change := RelevanceChange{ChunkID: chunk.ID}

		if draft, ok, derr := f.repos.RelevanceLabels.GetByChunkID(ctx, chunk.ID, false); derr == nil && ok {
			cls := string(draft.Class)
			score := draft.Score
			change.DraftRelevance = &cls
			change.DraftScore = &score
		}

		result, cerr := f.classifier.Classify(ctx, locked.Title, locked.Goal, locked.ScopeKeywords, f.cfg.StrictnessMode, chunk.Content, f.cfg.MaxTokens, f.cfg.Temperature)
		if cerr != nil {
			totals.ChunksRescoreFailed++
			f.sink.Emit(events.Event{
				Type:        events.TypeError,
				MeetingID:   meetingID,
				TimestampMs: time.Now().UnixMilli(),
				Payload:     events.ErrorPayload{Code: "llm_call_failed", Message: cerr.Error(), Recoverable: true},
			})
			changes = append(changes, change)
			continue
		}

		label := relevance.Label{
			ID:        uuid.New().String(),
			ChunkID:   chunk.ID,
			SubjectID: locked.ID,
			Class:     result.Class,
			Score:     result.Score,
			Reasoning: result.Reasoning,
			IsFinal:   true,
			CreatedAt: time.Now(),
		}
		if existing, found, gerr := f.repos.RelevanceLabels.GetByChunkID(ctx, chunk.ID, true); gerr == nil && found {
			label.ID = existing.ID
			if uerr := f.repos.RelevanceLabels.UpdateByID(ctx, label); uerr != nil {
				slog.Error("finalize: update final relevance label failed", "meeting_id", meetingID, "chunk_id", chunk.ID, "error", uerr)
			}
		} else if ierr := f.repos.RelevanceLabels.Insert(ctx, label); ierr != nil {
			slog.Error("finalize: insert final relevance label failed", "meeting_id", meetingID, "chunk_id", chunk.ID, "error", ierr)
		}

		cls := string(result.Class)
		score := result.Score
		change.FinalRelevance = &cls
		change.FinalScore = &score
		changes = append(changes, change)
		totals.ChunksRescored++
	}

	return changes, totals, nil
}

// finalizeCandidates implements spec §4.8 step 4: iterate all candidates
// in chunk order, mark global near-duplicates, and apply the strictness
// filter to the rest using each chunk's final relevance label. A chunk
// with no final label (the re-check failed) is treated conservatively:
// included unless duplicate (spec §4.8 failure semantics).
func (f *Finalizer) finalizeCandidates(ctx context.Context, meetingID string) (included, filtered []candidate.Candidate, totals Totals, err error) {
	cands, err := f.repos.Candidates.ListByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("finalize: list candidates: %w", err)
	}
	totals.CandidatesTotal = len(cands)

	var acceptedContents []string
	finalizedAt := time.Now()

	for _, cand := range cands {
		if candidate.IsNearDuplicate(cand.Content, acceptedContents) {
			cand.IsDuplicate = true
			cand.IsFinal = true
			cand.IncludedInOutput = false
			reason := "duplicate"
			cand.ExclusionReason = &reason
			cand.FinalizedAt = &finalizedAt
			if uerr := f.repos.Candidates.UpdateFinalizationFields(ctx, cand); uerr != nil {
				slog.Error("finalize: update candidate failed", "meeting_id", meetingID, "candidate_id", cand.ID, "error", uerr)
			}
			totals.CandidatesDuplicate++
			filtered = append(filtered, cand)
			continue
		}
		acceptedContents = append(acceptedContents, cand.Content)

		include := true
		var exclusionReason *string

		if label, ok, lerr := f.repos.RelevanceLabels.GetByChunkID(ctx, cand.ChunkID, true); lerr == nil && ok {
			cls := string(label.Class)
			score := label.Score
			cand.RelevanceType = &cls
			cand.RelevanceScore = &score

			decided, reasonCode := relevance.Decide(label.Class, label.Score, f.cfg.StrictnessMode)
			include = decided
			if !include {
				reason := relevance.ExclusionReason(reasonCode, f.cfg.StrictnessMode)
				exclusionReason = &reason
			}
		}
		// No final label on record: conservative include, per spec.

		cand.IsFinal = true
		cand.IsDuplicate = false
		cand.IncludedInOutput = include
		cand.ExclusionReason = exclusionReason
		cand.FinalizedAt = &finalizedAt

		if uerr := f.repos.Candidates.UpdateFinalizationFields(ctx, cand); uerr != nil {
			slog.Error("finalize: update candidate failed", "meeting_id", meetingID, "candidate_id", cand.ID, "error", uerr)
		}

		if include {
			included = append(included, cand)
		} else {
			filtered = append(filtered, cand)
		}
	}

	return included, filtered, totals, nil
}

// noteTypeMapping maps a candidate's note type onto the coarser Note
// record type (spec §4.8 step 5).
func noteTypeMapping(t candidate.NoteType) string {
	switch t {
	case candidate.KeyPoint:
		return "key_point"
	case candidate.Decision:
		return "decision"
	case candidate.ActionItem, candidate.Task:
		return "action_item"
	default:
		return "custom"
	}
}

// formatActionItemContent reformats an action item's content as
// "[Owner] Task — Due: Date" when both an assignee and a deadline are
// present (spec §4.8 step 5); otherwise the content is left untouched.
func formatActionItemContent(cand candidate.Candidate) string {
	if cand.Assignee == nil || cand.Deadline == nil {
		return cand.Content
	}
	owner := strings.TrimSpace(*cand.Assignee)
	deadline := strings.TrimSpace(*cand.Deadline)
	if owner == "" || deadline == "" {
		return cand.Content
	}
	return fmt.Sprintf("[%s] %s — Due: %s", owner, cand.Content, deadline)
}

// taskPriority maps a candidate's optional priority onto a Task record's
// priority string, defaulting to medium (spec §4.8 step 5).
func taskPriority(p *candidate.Priority) string {
	if p == nil {
		return string(candidate.PriorityMedium)
	}
	switch *p {
	case candidate.PriorityHigh, candidate.PriorityLow:
		return string(*p)
	default:
		return string(candidate.PriorityMedium)
	}
}

// persistOutputs implements spec §4.8 step 5: create a Note (and, for
// action items and tasks, a Task) for every included candidate, and
// bucket them into the StructuredOutput by original note type.
func (f *Finalizer) persistOutputs(ctx context.Context, meetingID string, locked subject.Subject, included []candidate.Candidate) (StructuredOutput, int, int, error) {
	output := StructuredOutput{Subject: locked}
	var notesCreated, tasksCreated int

	for _, cand := range included {
		content := cand.Content
		if cand.NoteType == candidate.ActionItem {
			content = formatActionItemContent(cand)
		}

		note := store.Note{
			ID:               uuid.New().String(),
			MeetingID:        meetingID,
			Content:          content,
			NoteType:         noteTypeMapping(cand.NoteType),
			IsAIGenerated:    true,
			SourceSegmentIDs: cand.SourceSegmentIDs,
			SpeakerID:        cand.SpeakerID,
			CreatedAt:        time.Now(),
		}
		if cand.RelevanceScore != nil {
			note.Confidence = *cand.RelevanceScore
		}
		if err := f.repos.Notes.Create(ctx, note); err != nil {
			slog.Error("finalize: create note failed", "meeting_id", meetingID, "candidate_id", cand.ID, "error", err)
		} else {
			notesCreated++
		}

		summary := NoteSummary{
			CandidateID: cand.ID,
			ChunkID:     cand.ChunkID,
			Content:     content,
			SpeakerID:   cand.SpeakerID,
			Assignee:    cand.Assignee,
			Deadline:    cand.Deadline,
		}
		if cand.Priority != nil {
			p := string(*cand.Priority)
			summary.Priority = &p
		}

		switch cand.NoteType {
		case candidate.KeyPoint:
			output.KeyPoints = append(output.KeyPoints, summary)
		case candidate.Decision:
			output.Decisions = append(output.Decisions, summary)
		case candidate.ActionItem:
			output.ActionItems = append(output.ActionItems, summary)
		case candidate.Task:
			output.Tasks = append(output.Tasks, summary)
		default:
			output.OtherNotes = append(output.OtherNotes, summary)
		}

		if cand.NoteType == candidate.ActionItem || cand.NoteType == candidate.Task {
			task := store.Task{
				ID:          uuid.New().String(),
				MeetingID:   meetingID,
				Title:       cand.Content,
				Description: cand.Content,
				Assignee:    cand.Assignee,
				DueDate:     cand.Deadline,
				Priority:    taskPriority(cand.Priority),
				Status:      "pending",
				CreatedAt:   time.Now(),
			}
			if err := f.repos.Tasks.Create(ctx, task); err != nil {
				slog.Error("finalize: create task failed", "meeting_id", meetingID, "candidate_id", cand.ID, "error", err)
			} else {
				tasksCreated++
			}
		}
	}

	return output, notesCreated, tasksCreated, nil
}
