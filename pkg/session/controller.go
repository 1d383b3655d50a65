// Package session implements the Session Controller (spec §4.7, §5): the
// state machine and per-chunk pipeline that drives one meeting's live
// pass from the first added segment through to finalization handoff.
//
// Grounded on the teacher's pkg/queue/worker.go (ticker-driven run loop,
// stop channel, single in-flight unit of work at a time) and its
// pkg/session/manager.go (mutex-guarded map of sessions), generalized
// from "claim and process a queued session" to "accumulate segments and
// process a chunk when the buffer is ready".
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meetingcore/notecore/pkg/candidate"
	"github.com/meetingcore/notecore/pkg/chunkmodel"
	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/events"
	"github.com/meetingcore/notecore/pkg/llmclient"
	"github.com/meetingcore/notecore/pkg/relevance"
	"github.com/meetingcore/notecore/pkg/store"
	"github.com/meetingcore/notecore/pkg/subject"
)

// tickInterval is how often the background loop checks chunk readiness
// (spec §5 "a periodic ticker wakes the session controller").
const tickInterval = 5 * time.Second

// Status is the session's lifecycle state (spec §4.7).
type Status string

const (
	StatusIdle       Status = "idle"
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusFinalizing Status = "finalizing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Finalizer runs the finalization workflow once the live pass has
// stopped producing new chunks. Implemented by pkg/finalize.Finalizer;
// declared here, on the consumer side, so this package doesn't import
// pkg/finalize.
type Finalizer interface {
	Finalize(ctx context.Context, meetingID, sessionID string) error
}

// ErrSessionInactive is returned by operations that require an
// active/paused/processing session.
var ErrSessionInactive = fmt.Errorf("session: not active")

// ErrLLMUnavailable is returned by StartSession when the provider's
// health probe fails; the session never reaches active (spec.md §7:
// "LLMUnavailable ... fatal to session start").
var ErrLLMUnavailable = fmt.Errorf("session: llm provider unavailable")

// Controller owns one meeting's live pass: the chunk buffer, subject
// estimator, relevance classifier, candidate extractor, and the
// cooperative single-writer loop that drives them (spec §5).
type Controller struct {
	meetingID string
	sessionID string
	cfg       *config.Config

	llm        llmclient.Provider
	chunker    *chunkmodel.Chunker
	estimator  *subject.Estimator
	detector   *subject.Detector
	classifier *relevance.Classifier
	extractor  *candidate.Extractor
	repos      store.Repos
	sink       events.Sink
	finalizer  Finalizer

	mu                  sync.Mutex
	status              Status
	isProcessing        bool
	pauseRequested      bool
	chunksProcessed     int
	lastBatchStartAt    *time.Time
	lastBatchCompleteAt *time.Time

	// runMu is held for the duration of one chunk's pipeline. StopSession
	// acquires it to wait out any in-flight chunk before finalizing,
	// without needing a WaitGroup for what is, by construction, never
	// more than one concurrent run.
	runMu sync.Mutex

	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	tickerCancel  context.CancelFunc
	tickerGroup   *errgroup.Group
}

// New creates a Controller for one meeting. llm backs both subject
// detection and relevance classification; finalizer may be nil until
// the caller is ready to wire pkg/finalize.Finalizer, but StopSession
// will then return an error.
func New(meetingID string, cfg *config.Config, llm llmclient.Provider, repos store.Repos, sink events.Sink, finalizer Finalizer) *Controller {
	validator := candidate.NewValidator(nil)
	return &Controller{
		meetingID:  meetingID,
		sessionID:  uuid.New().String(),
		cfg:        cfg,
		llm:        llm,
		chunker:    chunkmodel.NewChunker(),
		estimator:  subject.New(cfg.MinScopeKeywords, cfg.MaxScopeKeywords),
		detector:   subject.NewDetector(llm),
		classifier: relevance.New(llm),
		extractor:  candidate.NewExtractor(llm, validator),
		repos:      repos,
		sink:       sink,
		finalizer:  finalizer,
		status:     StatusIdle,
	}
}

// Status returns the controller's current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ChunksProcessed returns the count of chunks successfully committed so far.
func (c *Controller) ChunksProcessed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunksProcessed
}

// StartSession transitions idle -> active, persists the session row, and
// starts the readiness ticker. ctx bounds the lifetime of the background
// loop; callers typically pass a long-lived, cancelable context tied to
// the meeting's connection.
func (c *Controller) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusIdle {
		c.mu.Unlock()
		return fmt.Errorf("session: cannot start from status %q", c.status)
	}
	c.mu.Unlock()

	health, err := c.llm.CheckHealth(ctx, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	if !health.Healthy {
		return fmt.Errorf("%w: %s", ErrLLMUnavailable, health.Error)
	}

	c.mu.Lock()
	if c.status != StatusIdle {
		c.mu.Unlock()
		return fmt.Errorf("session: cannot start from status %q", c.status)
	}
	c.sessionCtx, c.sessionCancel = context.WithCancel(ctx)
	c.status = StatusActive
	c.startTickerLocked()
	c.mu.Unlock()

	now := time.Now()
	if err := c.repos.Sessions.Insert(c.sessionCtx, store.Session{
		ID:        c.sessionID,
		MeetingID: c.meetingID,
		Status:    string(StatusActive),
		StartedAt: now,
		UpdatedAt: now,
	}); err != nil {
		c.logRepoError("insert session", err)
	}

	c.emitStatus()
	return nil
}

// AddSegment buffers one transcript segment and makes an immediate,
// non-blocking-to-the-caller* attempt to process a chunk if the buffer
// has become ready, sharing the same isProcessing guard as the ticker
// (spec §5). Invalid segments (startMs > endMs) are dropped with a
// warning rather than surfaced (spec §7 InvalidInput); segments added
// while the session is not live are dropped with a warning (spec §7
// SessionInactive).
//
// *AddSegment does block for the duration of a chunk's pipeline if it is
// the call that triggers one — there is no separate worker goroutine per
// chunk, matching the single-writer concurrency model (spec §5).
func (c *Controller) AddSegment(ctx context.Context, seg chunkmodel.Segment) error {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	switch status {
	case StatusActive, StatusProcessing, StatusPaused:
	default:
		slog.Warn("segment dropped: session not active", "meeting_id", c.meetingID, "segment_id", seg.ID, "status", status)
		return nil
	}

	added, err := c.chunker.AddSegment(seg)
	if err != nil {
		slog.Warn("segment dropped: invalid input", "meeting_id", c.meetingID, "segment_id", seg.ID, "error", err)
		return nil
	}
	if !added {
		return nil
	}

	c.emitBatchState()
	if status == StatusPaused {
		return nil
	}
	c.maybeStartChunk(ctx)
	return nil
}

// PauseSession stops the ticker so no new chunk begins. A chunk already
// in flight completes; there is no cancellation (spec §5). If a chunk is
// in flight when PauseSession is called, the pause takes effect the
// moment that chunk finishes instead of immediately.
func (c *Controller) PauseSession(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusActive:
		c.status = StatusPaused
		c.stopTickerLocked()
	case StatusProcessing:
		c.pauseRequested = true
		c.mu.Unlock()
		return nil
	default:
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot pause from status %q", ErrSessionInactive, status)
	}
	c.mu.Unlock()
	c.emitStatus()
	return nil
}

// ResumeSession restarts the ticker after a pause.
func (c *Controller) ResumeSession(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusPaused {
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot resume from status %q", ErrSessionInactive, status)
	}
	c.status = StatusActive
	c.startTickerLocked()
	c.mu.Unlock()
	c.emitStatus()

	go c.maybeStartChunk(c.sessionCtx)
	return nil
}

// StopSession stops the ticker, waits for any in-flight chunk, flushes
// any remaining buffered segments as one last chunk, and hands off to
// the configured Finalizer. Returns an error (status -> error) if no
// Finalizer is configured or finalization itself fails.
func (c *Controller) StopSession(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusActive, StatusPaused, StatusProcessing:
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot stop from status %q", ErrSessionInactive, c.status)
	}
	c.status = StatusFinalizing
	c.stopTickerLocked()
	c.mu.Unlock()
	c.emitStatus()

	// Wait for any chunk already running to finish before touching the
	// chunker's buffer.
	c.runMu.Lock()
	c.runMu.Unlock()

	if chunk, selected, ok := c.chunker.Flush(); ok {
		segmentIDs := idsOf(selected)
		c.runMu.Lock()
		committed := c.processChunk(ctx, chunk, segmentIDs)
		c.runMu.Unlock()
		if committed {
			c.mu.Lock()
			c.chunksProcessed++
			c.mu.Unlock()
		}
	}

	if c.finalizer == nil {
		c.setStatus(StatusError)
		return fmt.Errorf("session: no finalizer configured")
	}

	lockedAt := time.Now()
	lockedSubject, err := c.estimator.Lock(lockedAt)
	if err != nil {
		c.setStatus(StatusError)
		c.emitError("subject_lock_failed", err.Error(), false)
		return err
	}
	if serr := c.repos.Subjects.Lock(ctx, c.meetingID, lockedSubject); serr != nil {
		c.logRepoError("lock subject", serr)
	}
	c.emitSubject(lockedSubject)

	if err := c.finalizer.Finalize(ctx, c.meetingID, c.sessionID); err != nil {
		c.setStatus(StatusError)
		c.emitError("finalization_failed", err.Error(), false)
		return err
	}

	if err := c.repos.Sessions.UpdateStatus(ctx, c.sessionID, string(StatusCompleted)); err != nil {
		c.logRepoError("update session status", err)
	}
	c.setStatus(StatusCompleted)
	if c.sessionCancel != nil {
		c.sessionCancel()
	}
	return nil
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.emitStatus()
}

// maybeStartChunk checks whether the buffer is ready (enough pending
// segments, and batchInterval elapsed since the last chunk completed)
// and, if so, runs exactly one chunk through the pipeline. It is the
// single entry point shared by the ticker and AddSegment (spec §5).
func (c *Controller) maybeStartChunk(ctx context.Context) {
	c.mu.Lock()
	if c.status != StatusActive || c.isProcessing {
		c.mu.Unlock()
		return
	}
	if c.chunker.PendingCount() < c.cfg.MinSegmentsPerChunk {
		c.mu.Unlock()
		return
	}
	if c.lastBatchCompleteAt != nil && time.Since(*c.lastBatchCompleteAt) < c.cfg.BatchInterval {
		c.mu.Unlock()
		return
	}

	windowCfg := chunkmodel.WindowConfig{
		MinWindowMs:         c.cfg.MinChunkWindow.Milliseconds(),
		MaxWindowMs:         c.cfg.MaxChunkWindow.Milliseconds(),
		MinSegmentsPerChunk: c.cfg.MinSegmentsPerChunk,
		MaxSegmentsPerChunk: c.cfg.MaxSegmentsPerChunk,
	}
	chunk, selected, ok := c.chunker.Peek(windowCfg)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.isProcessing = true
	c.status = StatusProcessing
	now := time.Now()
	c.lastBatchStartAt = &now
	c.mu.Unlock()
	c.emitStatus()
	c.emitBatchState()

	segmentIDs := idsOf(selected)

	c.runMu.Lock()
	committed := c.processChunk(ctx, chunk, segmentIDs)
	c.runMu.Unlock()

	c.mu.Lock()
	c.isProcessing = false
	if committed {
		completedAt := time.Now()
		c.lastBatchCompleteAt = &completedAt
		c.chunksProcessed++
	}
	// Only resolve processing -> active/paused if nothing else (StopSession)
	// has already moved the status on, e.g. to finalizing.
	if c.status == StatusProcessing {
		if c.pauseRequested {
			c.pauseRequested = false
			c.status = StatusPaused
			c.stopTickerLocked()
		} else {
			c.status = StatusActive
		}
	}
	c.mu.Unlock()
	c.emitStatus()
	c.emitBatchState()
}

// processChunk runs the full per-chunk pipeline in order: store chunk,
// detect subject, update subject, score relevance, emit relevance,
// gate/extract candidates, store candidates, emit candidates (spec §5).
// It returns false, leaving segmentIDs uncommitted for retry on the next
// tick, the moment any LLM call fails (spec §7 LLMCallFailed).
func (c *Controller) processChunk(ctx context.Context, chunk *chunkmodel.Chunk, segmentIDs []string) bool {
	if err := c.repos.Chunks.Insert(ctx, c.meetingID, *chunk); err != nil {
		c.logRepoError("insert chunk", err)
	}

	now := time.Now()
	det, err := c.detector.Detect(ctx, chunk.Content, c.cfg.MaxTokens, c.cfg.Temperature, now)
	if err != nil {
		c.emitError("llm_call_failed", err.Error(), true)
		return false
	}

	if ok, sub, uerr := c.estimator.UpdateWithWindow(det, now, chunk.WindowStartMs, chunk.WindowEndMs); uerr == nil && ok {
		if serr := c.repos.Subjects.UpsertDraft(ctx, c.meetingID, sub); serr != nil {
			c.logRepoError("upsert draft subject", serr)
		}
		if history := c.estimator.History(); len(history) > 0 {
			if herr := c.repos.SubjectHistory.Append(ctx, c.meetingID, history[len(history)-1]); herr != nil {
				c.logRepoError("append subject history", herr)
			}
		}
		c.emitSubject(sub)
	} else if uerr != nil && uerr != subject.ErrLocked {
		slog.Warn("subject update rejected", "meeting_id", c.meetingID, "error", uerr)
	}

	currentSubject := c.estimator.Current(now)
	hasSubject := currentSubject.Title != ""

	result, err := c.classifier.Classify(ctx, currentSubject.Title, currentSubject.Goal, currentSubject.ScopeKeywords, c.cfg.StrictnessMode, chunk.Content, c.cfg.MaxTokens, c.cfg.Temperature)
	if err != nil {
		c.emitError("llm_call_failed", err.Error(), true)
		return false
	}

	label := relevance.Label{
		ID:        uuid.New().String(),
		ChunkID:   chunk.ID,
		SubjectID: currentSubject.ID,
		Class:     result.Class,
		Score:     result.Score,
		Reasoning: result.Reasoning,
		IsFinal:   false,
		CreatedAt: now,
	}
	if err := c.repos.RelevanceLabels.Insert(ctx, label); err != nil {
		c.logRepoError("insert relevance label", err)
	}
	c.emitRelevance(label)

	if candidate.ShouldExtract(result.Class, hasSubject) {
		cands, err := c.extractor.Extract(ctx, c.meetingID, chunk.ID, segmentIDs, currentSubject.Title, currentSubject.Goal, currentSubject.ScopeKeywords, chunk.Content, c.cfg.MaxTokens, c.cfg.Temperature)
		if err != nil {
			c.emitError("llm_call_failed", err.Error(), true)
			return false
		}
		for _, cand := range cands {
			if err := c.repos.Candidates.Insert(ctx, cand); err != nil {
				c.logRepoError("insert candidate", err)
			}
		}
		c.emitCandidates(chunk.ID, cands)
	}

	c.chunker.Commit(chunk.ChunkIndex, segmentIDs)
	return true
}

// startTickerLocked launches the readiness ticker as an errgroup-managed
// goroutine scoped to its own cancelable context, so stopTickerLocked can
// stop exactly this run without tearing down the session context, and
// Shutdown can wait for it to actually exit.
func (c *Controller) startTickerLocked() {
	tickerCtx, cancel := context.WithCancel(c.sessionCtx)
	c.tickerCancel = cancel

	var g errgroup.Group
	c.tickerGroup = &g
	g.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return nil
			case <-ticker.C:
				c.maybeStartChunk(tickerCtx)
			}
		}
	})
}

func (c *Controller) stopTickerLocked() {
	if c.tickerCancel != nil {
		c.tickerCancel()
		c.tickerCancel = nil
	}
}

// Shutdown waits for the ticker goroutine of the most recent run to exit.
// Safe to call after StopSession/PauseSession; must not be called while
// holding c.mu.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	g := c.tickerGroup
	c.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

func (c *Controller) logRepoError(op string, err error) {
	slog.Error("repository error", "meeting_id", c.meetingID, "op", op, "error", err)
}

func idsOf(segs []chunkmodel.Segment) []string {
	ids := make([]string, len(segs))
	for i, s := range segs {
		ids[i] = s.ID
	}
	return ids
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func (c *Controller) emitStatus() {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	c.emitStatusValue(status)
}

func (c *Controller) emitStatusValue(status Status) {
	c.sink.Emit(events.Event{
		Type:        events.TypeStatus,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload:     events.StatusPayload{Status: string(status)},
	})
}

func (c *Controller) emitSubject(sub subject.Subject) {
	conf := c.estimator.Confidence()
	c.sink.Emit(events.Event{
		Type:        events.TypeSubject,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload: events.SubjectPayload{
			ID:            sub.ID,
			Title:         sub.Title,
			Goal:          sub.Goal,
			ScopeKeywords: sub.ScopeKeywords,
			IsDraft:       sub.Status == subject.StatusDraft,
			Confidence: events.ConfidenceInfo{
				Score:          conf.Score,
				Status:         string(conf.Status),
				Message:        conf.Message,
				DetectionCount: conf.DetectionCount,
			},
		},
	})
}

func (c *Controller) emitRelevance(label relevance.Label) {
	c.sink.Emit(events.Event{
		Type:        events.TypeRelevance,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload: events.RelevancePayload{
			ChunkID:       label.ChunkID,
			RelevanceType: string(label.Class),
			Score:         label.Score,
			IsFinal:       label.IsFinal,
		},
	})
}

func (c *Controller) emitCandidates(chunkID string, cands []candidate.Candidate) {
	summaries := make([]events.CandidateSummary, 0, len(cands))
	for _, cand := range cands {
		summaries = append(summaries, events.CandidateSummary{
			ID:       cand.ID,
			ChunkID:  cand.ChunkID,
			NoteType: string(cand.NoteType),
			Content:  cand.Content,
		})
	}
	c.sink.Emit(events.Event{
		Type:        events.TypeCandidates,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload:     events.CandidatesPayload{ChunkID: chunkID, Candidates: summaries},
	})
}

func (c *Controller) emitBatchState() {
	c.mu.Lock()
	var startMs, completeMs *int64
	if c.lastBatchStartAt != nil {
		v := c.lastBatchStartAt.UnixMilli()
		startMs = &v
	}
	if c.lastBatchCompleteAt != nil {
		v := c.lastBatchCompleteAt.UnixMilli()
		completeMs = &v
	}
	payload := events.BatchStatePayload{
		IsProcessing:         c.isProcessing,
		PendingSegmentCount:  c.chunker.PendingCount(),
		ChunksProcessed:      c.chunksProcessed,
		LastBatchStartTimeMs: startMs,
		LastBatchCompleteMs:  completeMs,
	}
	c.mu.Unlock()

	c.sink.Emit(events.Event{
		Type:        events.TypeBatchState,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload:     payload,
	})
}

func (c *Controller) emitError(code, message string, recoverable bool) {
	c.sink.Emit(events.Event{
		Type:        events.TypeError,
		MeetingID:   c.meetingID,
		TimestampMs: nowMs(),
		Payload:     events.ErrorPayload{Code: code, Message: message, Recoverable: recoverable},
	})
}
