// Package chunkmodel holds the transcript Segment/Chunk data model and
// the Chunker that groups pending segments into time-windowed chunks
// (spec §4.1).
package chunkmodel

// Segment is one timestamped, speaker-attributed transcript unit supplied
// by the (out-of-scope) ingestion source. Immutable once created.
type Segment struct {
	ID      string
	Content string
	Speaker string
	StartMs int64
	EndMs   int64
}

// Chunk is an immutable, formatted window of segments produced by the
// Chunker for a single LLM call.
type Chunk struct {
	ID            string
	ChunkIndex    int
	WindowStartMs int64
	WindowEndMs   int64
	Content       string
	SpeakerIDs    []string
	SegmentIDs    []string
}
