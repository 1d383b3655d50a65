package chunkmodel

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// earlyStopWindowRatio is the fraction of maxWindow at which the chunker
// stops accumulating segments even if minSegmentsPerChunk hasn't been
// reached yet (spec §4.1: "stops early if the window has consumed ≥80%
// of maxWindow").
const earlyStopWindowRatio = 0.8

// WindowConfig is the subset of config.Config the chunker needs, kept
// narrow so chunkmodel has no dependency on the config package.
type WindowConfig struct {
	MinWindowMs         int64
	MaxWindowMs         int64
	MinSegmentsPerChunk int
	MaxSegmentsPerChunk int
}

// Chunker holds the ordered buffer of pending segments for one session
// and mints contiguous, disjoint Chunks from it (spec §4.1).
//
// Selection is split into Peek (pure, read-only) and Commit (mutates
// state) so a caller can run the rest of the per-chunk pipeline between
// the two calls and only advance state if that pipeline succeeds —
// matching "failures leave them in place for the next tick".
type Chunker struct {
	mu           sync.Mutex
	pending      []Segment
	knownIDs     map[string]struct{} // pending ∪ processed, for idempotent AddSegment
	processedIDs map[string]struct{}
	nextIndex    int
}

// NewChunker creates an empty chunker.
func NewChunker() *Chunker {
	return &Chunker{
		knownIDs:     make(map[string]struct{}),
		processedIDs: make(map[string]struct{}),
	}
}

// AddSegment appends a segment to the pending buffer. Returns added=false
// (no error) if the segment id was already seen, pending or processed —
// the idempotence law from spec §8. Returns an error for invalid input
// (startMs > endMs), which the caller should treat as spec §7's
// InvalidInput (dropped with a warning, not fatal).
func (c *Chunker) AddSegment(seg Segment) (added bool, err error) {
	if seg.StartMs > seg.EndMs {
		return false, fmt.Errorf("segment %s: startMs %d > endMs %d", seg.ID, seg.StartMs, seg.EndMs)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.knownIDs[seg.ID]; seen {
		return false, nil
	}
	c.knownIDs[seg.ID] = struct{}{}
	c.pending = append(c.pending, seg)
	return true, nil
}

// PendingCount returns the number of segments awaiting a chunk.
func (c *Chunker) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Peek computes the next chunk the buffer is ready to emit, without
// mutating any state. ok is false if the buffer isn't ready yet (spec
// §8: "less than either must wait, except at stop").
func (c *Chunker) Peek(cfg WindowConfig) (chunk *Chunk, selected []Segment, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil, nil, false
	}

	ordered := make([]Segment, len(c.pending))
	copy(ordered, c.pending)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StartMs < ordered[j].StartMs })

	first := ordered[0]
	picked := []Segment{first}
	latestEnd := first.EndMs

	for i := 1; i < len(ordered); i++ {
		seg := ordered[i]
		tentativeEnd := latestEnd
		if seg.EndMs > tentativeEnd {
			tentativeEnd = seg.EndMs
		}
		if tentativeEnd-first.StartMs > cfg.MaxWindowMs {
			break
		}
		if len(picked) >= cfg.MaxSegmentsPerChunk {
			break
		}

		picked = append(picked, seg)
		latestEnd = tentativeEnd

		window := latestEnd - first.StartMs
		if len(picked) >= cfg.MaxSegmentsPerChunk {
			break
		}
		if window >= cfg.MinWindowMs && len(picked) >= cfg.MinSegmentsPerChunk {
			break
		}
		if float64(window) >= earlyStopWindowRatio*float64(cfg.MaxWindowMs) {
			break
		}
	}

	window := latestEnd - first.StartMs
	ready := (window >= cfg.MinWindowMs && len(picked) >= cfg.MinSegmentsPerChunk) ||
		float64(window) >= earlyStopWindowRatio*float64(cfg.MaxWindowMs)
	if !ready {
		return nil, nil, false
	}

	return c.buildChunk(picked, first.StartMs, latestEnd), picked, true
}

// Flush takes every remaining pending segment as one final chunk,
// ignoring min/max window and segment-count bounds (spec §4.1: "any
// remaining pending segments are flushed as a final chunk even if below
// minSegmentsPerChunk or minWindow"). ok is false only if there is
// nothing pending.
func (c *Chunker) Flush() (chunk *Chunk, selected []Segment, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil, nil, false
	}

	ordered := make([]Segment, len(c.pending))
	copy(ordered, c.pending)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StartMs < ordered[j].StartMs })

	latestEnd := ordered[0].EndMs
	for _, seg := range ordered {
		if seg.EndMs > latestEnd {
			latestEnd = seg.EndMs
		}
	}

	return c.buildChunk(ordered, ordered[0].StartMs, latestEnd), ordered, true
}

// Commit removes the given segment ids from pending, marks them
// processed, and advances the chunk-index counter past chunkIndex. Call
// this only once every downstream step for the chunk (store, detect,
// score, extract, persist) has succeeded.
func (c *Chunker) Commit(chunkIndex int, segmentIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remove := make(map[string]struct{}, len(segmentIDs))
	for _, id := range segmentIDs {
		remove[id] = struct{}{}
		c.processedIDs[id] = struct{}{}
	}

	kept := c.pending[:0]
	for _, seg := range c.pending {
		if _, gone := remove[seg.ID]; gone {
			continue
		}
		kept = append(kept, seg)
	}
	c.pending = kept

	if chunkIndex >= c.nextIndex {
		c.nextIndex = chunkIndex + 1
	}
}

// ProcessedIDs returns a copy of the set of segment ids that have been
// committed into a chunk.
func (c *Chunker) ProcessedIDs() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]struct{}, len(c.processedIDs))
	for id := range c.processedIDs {
		out[id] = struct{}{}
	}
	return out
}

func (c *Chunker) buildChunk(segs []Segment, windowStart, windowEnd int64) *Chunk {
	speakerSeen := make(map[string]struct{})
	speakerIDs := make([]string, 0, 4)
	segmentIDs := make([]string, 0, len(segs))
	for _, seg := range segs {
		segmentIDs = append(segmentIDs, seg.ID)
		if _, ok := speakerSeen[seg.Speaker]; !ok {
			speakerSeen[seg.Speaker] = struct{}{}
			speakerIDs = append(speakerIDs, seg.Speaker)
		}
	}

	return &Chunk{
		ID:            uuid.New().String(),
		ChunkIndex:    c.nextIndex,
		WindowStartMs: windowStart,
		WindowEndMs:   windowEnd,
		Content:       FormatContent(segs),
		SpeakerIDs:    speakerIDs,
		SegmentIDs:    segmentIDs,
	}
}

// FormatContent merges consecutive segments from the same speaker into
// one "[SPEAKER_X]: ..." line, blank-line separated (spec §4.1). Speaker
// identity is taken verbatim from the segment; no text-based inference.
func FormatContent(segs []Segment) string {
	if len(segs) == 0 {
		return ""
	}

	var lines []string
	var curSpeaker string
	var curParts []string

	flush := func() {
		if len(curParts) == 0 {
			return
		}
		lines = append(lines, fmt.Sprintf("[%s]: %s", curSpeaker, strings.Join(curParts, " ")))
	}

	for _, seg := range segs {
		if seg.Speaker != curSpeaker && len(curParts) > 0 {
			flush()
			curParts = nil
		}
		curSpeaker = seg.Speaker
		curParts = append(curParts, strings.TrimSpace(seg.Content))
	}
	flush()

	return strings.Join(lines, "\n\n")
}
