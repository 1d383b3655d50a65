package chunkmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg() WindowConfig {
	return WindowConfig{
		MinWindowMs:         20_000,
		MaxWindowMs:         60_000,
		MinSegmentsPerChunk: 2,
		MaxSegmentsPerChunk: 30,
	}
}

func TestAddSegment_IdempotentOnDuplicateID(t *testing.T) {
	c := NewChunker()
	seg := Segment{ID: "s1", Content: "hi", Speaker: "A", StartMs: 0, EndMs: 1000}

	added, err := c.AddSegment(seg)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.AddSegment(seg)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, c.PendingCount())
}

func TestAddSegment_RejectsInvertedTimes(t *testing.T) {
	c := NewChunker()
	_, err := c.AddSegment(Segment{ID: "s1", StartMs: 100, EndMs: 50})
	assert.Error(t, err)
}

func TestPeek_WaitsForMinWindowAndMinSegments(t *testing.T) {
	c := NewChunker()
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 1000}))

	_, _, ok := c.Peek(cfg())
	assert.False(t, ok, "single short segment should not be ready")
}

func TestPeek_ReadyExactlyAtMinWindow(t *testing.T) {
	c := NewChunker()
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 1000}))
	must(t, c.AddSegment(Segment{ID: "s2", Content: "b", Speaker: "B", StartMs: 1000, EndMs: 20_000}))

	chunk, selected, ok := c.Peek(cfg())
	require.True(t, ok)
	assert.Equal(t, int64(0), chunk.WindowStartMs)
	assert.Equal(t, int64(20_000), chunk.WindowEndMs)
	assert.Len(t, selected, 2)
	assert.Equal(t, 0, chunk.ChunkIndex)
}

func TestPeek_StopsAtMaxSegments(t *testing.T) {
	c := NewChunker()
	small := WindowConfig{MinWindowMs: 20_000, MaxWindowMs: 60_000, MinSegmentsPerChunk: 1, MaxSegmentsPerChunk: 2}
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 100}))
	must(t, c.AddSegment(Segment{ID: "s2", Content: "b", Speaker: "B", StartMs: 100, EndMs: 20_000}))
	must(t, c.AddSegment(Segment{ID: "s3", Content: "c", Speaker: "A", StartMs: 20_000, EndMs: 20_100}))

	chunk, selected, ok := c.Peek(small)
	require.True(t, ok)
	assert.Len(t, selected, 2)
	assert.Equal(t, []string{"s1", "s2"}, chunk.SegmentIDs)
}

func TestPeek_EarlyStopAt80PercentOfMaxWindow(t *testing.T) {
	c := NewChunker()
	// maxWindow 60000, 80% = 48000. Single segment already spans that.
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 50_000}))

	chunk, _, ok := c.Peek(cfg())
	require.True(t, ok)
	assert.Equal(t, int64(50_000), chunk.WindowEndMs)
}

func TestCommit_RemovesFromPendingAndAdvancesIndex(t *testing.T) {
	c := NewChunker()
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 1000}))
	must(t, c.AddSegment(Segment{ID: "s2", Content: "b", Speaker: "B", StartMs: 1000, EndMs: 20_000}))

	chunk, selected, ok := c.Peek(cfg())
	require.True(t, ok)
	ids := make([]string, len(selected))
	for i, s := range selected {
		ids[i] = s.ID
	}
	c.Commit(chunk.ChunkIndex, ids)

	assert.Equal(t, 0, c.PendingCount())
	processed := c.ProcessedIDs()
	assert.Contains(t, processed, "s1")
	assert.Contains(t, processed, "s2")

	// A subsequent chunk gets the next contiguous index.
	must(t, c.AddSegment(Segment{ID: "s3", Content: "c", Speaker: "A", StartMs: 21_000, EndMs: 41_000}))
	must(t, c.AddSegment(Segment{ID: "s4", Content: "d", Speaker: "A", StartMs: 41_000, EndMs: 42_000}))
	next, _, ok := c.Peek(cfg())
	require.True(t, ok)
	assert.Equal(t, 1, next.ChunkIndex)
}

func TestPeek_FailureLeavesSegmentsPendingWithSameIndex(t *testing.T) {
	c := NewChunker()
	must(t, c.AddSegment(Segment{ID: "s1", Content: "a", Speaker: "A", StartMs: 0, EndMs: 1000}))
	must(t, c.AddSegment(Segment{ID: "s2", Content: "b", Speaker: "B", StartMs: 1000, EndMs: 20_000}))

	first, _, ok := c.Peek(cfg())
	require.True(t, ok)
	// Simulate a failed downstream step: no Commit call.

	retry, _, ok := c.Peek(cfg())
	require.True(t, ok)
	assert.Equal(t, first.ChunkIndex, retry.ChunkIndex)
	assert.Equal(t, 2, c.PendingCount())
}

func TestFlush_IgnoresMinimumBounds(t *testing.T) {
	c := NewChunker()
	must(t, c.AddSegment(Segment{ID: "s1", Content: "lonely", Speaker: "A", StartMs: 0, EndMs: 500}))

	chunk, selected, ok := c.Flush()
	require.True(t, ok)
	assert.Len(t, selected, 1)
	assert.Equal(t, int64(500), chunk.WindowEndMs)
}

func TestFlush_EmptyPendingReturnsFalse(t *testing.T) {
	c := NewChunker()
	_, _, ok := c.Flush()
	assert.False(t, ok)
}

func TestFormatContent_MergesConsecutiveSameSpeaker(t *testing.T) {
	segs := []Segment{
		{ID: "1", Speaker: "Alice", Content: "hello"},
		{ID: "2", Speaker: "Alice", Content: "there"},
		{ID: "3", Speaker: "Bob", Content: "hi"},
	}
	got := FormatContent(segs)
	assert.Equal(t, "[Alice]: hello there\n\n[Bob]: hi", got)
}

func must(t *testing.T, added bool, err error) {
	t.Helper()
	require.NoError(t, err)
	require.True(t, added)
}
