package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfigYAML []byte

// ScoutingPolicy tunes the consistency-window recommendation ranking.
type ScoutingPolicy struct {
	WindowDays             int     `yaml:"window_days"`
	MinAnalyses            int     `yaml:"min_analyses"`
	MinConsistencyScore    float64 `yaml:"min_consistency_score"`
	MaxResults             int     `yaml:"max_results"`
	AggregationConcurrency int     `yaml:"aggregation_concurrency"`
}

// ScoringPolicy tunes the AI scoring client and the background worker.
type ScoringPolicy struct {
	Model             string  `yaml:"model"`
	AnalysisVersion   string  `yaml:"analysis_version"`
	Temperature       float64 `yaml:"temperature"`
	WorkerConcurrency int     `yaml:"worker_concurrency"`
	MaxAttempts       int     `yaml:"max_attempts"`
	StaleLockSeconds  int     `yaml:"stale_lock_seconds"`
}

type Config struct {
	Scouting ScoutingPolicy `yaml:"scouting"`
	Scoring  ScoringPolicy  `yaml:"scoring"`
}

// Load decodes the embedded defaults and, when path is non-empty, overlays
// the file on top of them. Values omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("decode embedded config: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Scouting.WindowDays <= 0 {
		return fmt.Errorf("scouting.window_days must be positive")
	}
	if c.Scouting.MinAnalyses < 1 {
		return fmt.Errorf("scouting.min_analyses must be at least 1")
	}
	if c.Scouting.MaxResults <= 0 {
		return fmt.Errorf("scouting.max_results must be positive")
	}
	if c.Scouting.AggregationConcurrency <= 0 {
		c.Scouting.AggregationConcurrency = 1
	}
	if c.Scoring.Model == "" {
		return fmt.Errorf("scoring.model must be set")
	}
	if c.Scoring.AnalysisVersion == "" {
		c.Scoring.AnalysisVersion = "v1"
	}
	if c.Scoring.WorkerConcurrency <= 0 {
		c.Scoring.WorkerConcurrency = 1
	}
	if c.Scoring.MaxAttempts < 1 {
		c.Scoring.MaxAttempts = 1
	}
	if c.Scoring.StaleLockSeconds <= 0 {
		c.Scoring.StaleLockSeconds = 300
	}
	return nil
}
