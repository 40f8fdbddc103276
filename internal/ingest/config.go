package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the ingestion configuration: the geographic sanity-check box,
// source guard settings and the ownership classification threshold handed to
// the scoring engine.
type Config struct {
	Bounds                Bounds      `yaml:"bounds"`
	Guard                 GuardConfig `yaml:"guard"`
	ChineseStakeThreshold float64     `yaml:"chinese_stake_threshold"`
}

// DefaultConfig returns the production ingestion configuration.
func DefaultConfig() Config {
	return Config{
		Bounds:                GreenlandBounds(),
		Guard:                 DefaultGuardConfig(),
		ChineseStakeThreshold: 0,
	}
}

// LoadConfig reads an ingestion configuration from a YAML file. Absent
// sections keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read ingest config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse ingest config: %w", err)
	}

	if cfg.Bounds.MinLat >= cfg.Bounds.MaxLat || cfg.Bounds.MinLon >= cfg.Bounds.MaxLon {
		return cfg, fmt.Errorf("invalid bounds: min must be below max")
	}
	if cfg.ChineseStakeThreshold < 0 || cfg.ChineseStakeThreshold > 100 {
		return cfg, fmt.Errorf("chinese_stake_threshold %.1f outside [0,100]", cfg.ChineseStakeThreshold)
	}

	return cfg, nil
}
