package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 5, cfg.MarketStats.MinSampleCount)
	assert.InDelta(t, 0.5, cfg.Scoring.Statistical.Weights.CPU, 1e-9)
	assert.InDelta(t, -2.5, cfg.Scoring.Statistical.ZSevere, 1e-9)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
pipeline:
  workers: 12
scoring:
  statistical:
    z_clamp: 6
market_stats:
  min_sample_count: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Pipeline.Workers)
	assert.InDelta(t, 6.0, cfg.Scoring.Statistical.ZClamp, 1e-9)
	assert.Equal(t, 8, cfg.MarketStats.MinSampleCount)

	// untouched keys keep their defaults
	assert.Equal(t, 60, cfg.Pipeline.FlagThreshold)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LRE_ENVIRONMENT", "production")
	t.Setenv("LRE_LOG_LEVEL", "warn")
	t.Setenv("LRE_PIPELINE__WORKERS", "2")
	t.Setenv("LRE_MARKET_STATS__MIN_SAMPLE_COUNT", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 9, cfg.MarketStats.MinSampleCount)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Run("zero weight sum", func(t *testing.T) {
		cfg := defaults()
		cfg.Scoring.Statistical.Weights.CPU = 0
		cfg.Scoring.Statistical.Weights.GPU = 0
		cfg.Scoring.Statistical.Weights.RAM = 0
		cfg.Scoring.Statistical.Weights.Category = 0
		assert.Error(t, Validate(cfg))
	})

	t.Run("negative weight", func(t *testing.T) {
		cfg := defaults()
		cfg.Scoring.Statistical.Weights.CPU = -0.5
		assert.Error(t, Validate(cfg))
	})

	t.Run("inverted z tiers", func(t *testing.T) {
		cfg := defaults()
		cfg.Scoring.Statistical.ZSevere = -1.0
		assert.Error(t, Validate(cfg))
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := defaults()
		cfg.LogLevel = "verbose"
		assert.Error(t, Validate(cfg))
	})

	t.Run("zero min sample count", func(t *testing.T) {
		cfg := defaults()
		cfg.MarketStats.MinSampleCount = 0
		assert.Error(t, Validate(cfg))
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Validate(defaults()))
	})
}
