package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors Config but with plain millisecond integers, matching
// how spec §6 enumerates the options ("minChunkWindowMs (default 20000)").
type yamlConfig struct {
	MinChunkWindowMs    *int     `yaml:"min_chunk_window_ms"`
	MaxChunkWindowMs    *int     `yaml:"max_chunk_window_ms"`
	BatchIntervalMs     *int     `yaml:"batch_interval_ms"`
	MinSegmentsPerChunk *int     `yaml:"min_segments_per_chunk"`
	MaxSegmentsPerChunk *int     `yaml:"max_segments_per_chunk"`
	StrictnessMode      *string  `yaml:"strictness_mode"`
	MinScopeKeywords    *int     `yaml:"min_scope_keywords"`
	MaxScopeKeywords    *int     `yaml:"max_scope_keywords"`
	MaxTokens           *int     `yaml:"max_tokens"`
	Temperature         *float64 `yaml:"temperature"`
	StoreDebugData      *bool    `yaml:"store_debug_data"`
}

// Initialize loads configuration from an optional .env file and an
// optional YAML file, layering both over Defaults(), and validates the
// result. Either path may be empty, in which case that layer is skipped.
//
// Steps, grounded on the teacher's pkg/config.Initialize:
//  1. Load .env (best-effort; a missing file is not an error)
//  2. Load and parse the YAML file (if path given)
//  3. Merge onto Defaults()
//  4. Validate
func Initialize(envPath, yamlPath string) (*Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath) // best-effort, matches cmd/tarsy/main.go
	}

	cfg := Defaults()

	if yamlPath != "" {
		overlay, err := loadYAML(yamlPath)
		if err != nil {
			return nil, err
		}
		applyOverlay(cfg, overlay)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var overlay yamlConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &overlay, nil
}

// applyOverlay copies every non-nil overlay field onto cfg, leaving
// defaults in place for anything the YAML file didn't set.
func applyOverlay(cfg *Config, o *yamlConfig) {
	if o.MinChunkWindowMs != nil {
		cfg.MinChunkWindow = time.Duration(*o.MinChunkWindowMs) * time.Millisecond
	}
	if o.MaxChunkWindowMs != nil {
		cfg.MaxChunkWindow = time.Duration(*o.MaxChunkWindowMs) * time.Millisecond
	}
	if o.BatchIntervalMs != nil {
		cfg.BatchInterval = time.Duration(*o.BatchIntervalMs) * time.Millisecond
	}
	if o.MinSegmentsPerChunk != nil {
		cfg.MinSegmentsPerChunk = *o.MinSegmentsPerChunk
	}
	if o.MaxSegmentsPerChunk != nil {
		cfg.MaxSegmentsPerChunk = *o.MaxSegmentsPerChunk
	}
	if o.StrictnessMode != nil {
		cfg.StrictnessMode = StrictnessMode(*o.StrictnessMode)
	}
	if o.MinScopeKeywords != nil {
		cfg.MinScopeKeywords = *o.MinScopeKeywords
	}
	if o.MaxScopeKeywords != nil {
		cfg.MaxScopeKeywords = *o.MaxScopeKeywords
	}
	if o.MaxTokens != nil {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	if o.StoreDebugData != nil {
		cfg.StoreDebugData = *o.StoreDebugData
	}
}
