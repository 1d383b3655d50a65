package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 20*time.Second, cfg.MinChunkWindow)
	assert.Equal(t, StrictnessStrict, cfg.StrictnessMode)
}

func TestValidate_RejectsInvertedWindow(t *testing.T) {
	cfg := Defaults()
	cfg.MaxChunkWindow = cfg.MinChunkWindow - time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidate_RejectsUnknownStrictness(t *testing.T) {
	cfg := Defaults()
	cfg.StrictnessMode = "extreme"
	assert.Error(t, cfg.Validate())
}

func TestInitialize_OverlayWinsOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notecore.yaml")
	yamlContent := "strictness_mode: loose\nmax_tokens: 8192\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	cfg, err := Initialize("", path)
	require.NoError(t, err)
	assert.Equal(t, StrictnessLoose, cfg.StrictnessMode)
	assert.Equal(t, 8192, cfg.MaxTokens)
	// untouched fields keep their defaults
	assert.Equal(t, 2, cfg.MinSegmentsPerChunk)
}

func TestInitialize_MissingYAMLPathIsError(t *testing.T) {
	_, err := Initialize("", "/nonexistent/path.yaml")
	assert.Error(t, err)
}
