// Package config loads the engine configuration: struct defaults, an
// optional YAML file, then LRE_-prefixed environment overrides, validated
// before anything scores a single listing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/listingguard/risk-engine/internal/service/pipeline"
	"github.com/listingguard/risk-engine/internal/service/scoring"
)

// envPrefix namespaces the engine's environment variables. A double
// underscore separates nesting levels, a single underscore stays part of
// the key: LRE_PIPELINE__WORKERS=8, LRE_MARKET_STATS__MIN_SAMPLE_COUNT=3,
// LRE_LOG_LEVEL=debug.
const envPrefix = "LRE_"

type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Pipeline    pipeline.Config   `koanf:"pipeline"`
	Scoring     scoring.Config    `koanf:"scoring"`
	MarketStats MarketStatsConfig `koanf:"market_stats"`
	Database    DatabaseConfig    `koanf:"database"`
}

// MarketStatsConfig locates the snapshot and sets the bucket trust floor.
type MarketStatsConfig struct {
	SnapshotPath   string `koanf:"snapshot_path" validate:"required"`
	MinSampleCount int    `koanf:"min_sample_count" validate:"gte=1"`
}

// DatabaseConfig points the rebuild job at the historical listing corpus.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int           `koanf:"max_conns" validate:"gte=1"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

func defaults() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Pipeline:    pipeline.DefaultConfig(),
		Scoring:     scoring.DefaultConfig(),
		MarketStats: MarketStatsConfig{
			SnapshotPath:   "data/market_snapshot.json",
			MinSampleCount: 5,
		},
		Database: DatabaseConfig{
			MaxConns:        4,
			ConnMaxLifetime: 5 * time.Minute,
		},
	}
}

// Load assembles the configuration from defaults, the optional YAML file
// at path, and LRE_ environment variables, in that precedence order.
// Invalid configuration is fatal: a scoring run with bad weights produces
// meaningless scores, so it must never start.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// An absent config file is fine, defaults plus env is a valid setup.
	// A file that exists but does not parse is not: the operator pointed
	// at it on purpose, so silently scoring on defaults would be worse
	// than refusing to start.
	if path != "" {
		switch _, err := os.Stat(path); {
		case err == nil:
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies the struct tags plus the cross-field rules the tags
// cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	w := cfg.Scoring.Statistical.Weights
	if w.Sum() <= 0 {
		return fmt.Errorf("invalid configuration: component weights sum to %.3f, need > 0", w.Sum())
	}
	if cfg.Scoring.Statistical.ZSevere >= cfg.Scoring.Statistical.ZModerate {
		return fmt.Errorf("invalid configuration: z_severe (%.2f) must be below z_moderate (%.2f)",
			cfg.Scoring.Statistical.ZSevere, cfg.Scoring.Statistical.ZModerate)
	}
	return nil
}
