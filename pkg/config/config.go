// Package config holds the tunable parameters of the meeting-note core
// (spec §6 "Configuration options") plus the loader/validator that turns
// a YAML file and the process environment into a ready-to-use Config.
package config

import "time"

// Config is the umbrella configuration object consumed by every core
// component. All fields have defaults (see Defaults) so a zero-value
// Config is never used directly — callers go through Defaults() or
// Initialize().
type Config struct {
	// MinChunkWindow is the minimum time span a chunk may cover before the
	// chunker is allowed to stop accumulating segments (unless flushing).
	MinChunkWindow time.Duration `yaml:"min_chunk_window_ms"`

	// MaxChunkWindow is the hard ceiling on a chunk's time span.
	MaxChunkWindow time.Duration `yaml:"max_chunk_window_ms"`

	// BatchInterval is the minimum time between the completion of one
	// chunk and the start of the next, used by the readiness ticker.
	BatchInterval time.Duration `yaml:"batch_interval_ms"`

	// MinSegmentsPerChunk/MaxSegmentsPerChunk bound how many segments a
	// single chunk may contain.
	MinSegmentsPerChunk int `yaml:"min_segments_per_chunk"`
	MaxSegmentsPerChunk int `yaml:"max_segments_per_chunk"`

	// StrictnessMode controls the finalization filter (spec §4.8).
	StrictnessMode StrictnessMode `yaml:"strictness_mode"`

	// MinScopeKeywords/MaxScopeKeywords bound the subject's keyword set.
	MinScopeKeywords int `yaml:"min_scope_keywords"`
	MaxScopeKeywords int `yaml:"max_scope_keywords"`

	// MaxTokens/Temperature are passed through to every ChatComplete call.
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// StoreDebugData, when true, retains live-pass candidate/relevance
	// data for observation even though it is never published as final
	// (spec §1 Non-goals).
	StoreDebugData bool `yaml:"store_debug_data"`
}

// Defaults returns a Config populated with the defaults enumerated in
// spec §6.
func Defaults() *Config {
	return &Config{
		MinChunkWindow:      20 * time.Second,
		MaxChunkWindow:      60 * time.Second,
		BatchInterval:       30 * time.Second,
		MinSegmentsPerChunk: 2,
		MaxSegmentsPerChunk: 30,
		StrictnessMode:      StrictnessStrict,
		MinScopeKeywords:    5,
		MaxScopeKeywords:    15,
		MaxTokens:           4096,
		Temperature:         0.3,
		StoreDebugData:      true,
	}
}

// Clone returns a deep copy (Config has no reference fields today, but
// Clone exists so callers never mutate a shared Defaults() instance).
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
