// Package config holds the immutable process configuration. Everything is
// read once at startup; stages receive read-only references.
package config

import (
	"os"
	"strings"
	"time"
)

// StageConfig is the per-stage tuning record: generation parameters plus the
// performance thresholds the stage is gated against.
type StageConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxDuration bounds the stage's external calls; exceeding it is a
	// hard failure.
	MaxDuration time.Duration
	// MinQuality is the minimum output metric (findings count or word
	// count). Falling below it is a soft failure: the run continues with a
	// warning appended.
	MinQuality int
}

type Stages struct {
	Research   StageConfig
	Writer     StageConfig
	Newsletter StageConfig
}

type Config struct {
	Addr           string
	TracingEnabled bool
	TracingProject string
	// RunTimeout bounds one full pipeline run for background submissions.
	RunTimeout time.Duration
	Stages     Stages
}

func Load() Config {
	return Config{
		Addr:           ":" + getenv("PORT", "8000"),
		TracingEnabled: parseBool(os.Getenv("CONTENTFLOW_TRACING"), false),
		TracingProject: getenv("CONTENTFLOW_TRACING_PROJECT", "contentflow-agents"),
		RunTimeout:     getenvDuration("CONTENTFLOW_RUN_TIMEOUT", 2*time.Minute),
		Stages:         DefaultStages(),
	}
}

// DefaultStages mirrors the production model assignments and monitoring
// thresholds for the three agents.
func DefaultStages() Stages {
	return Stages{
		Research: StageConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.3,
			MaxTokens:   1000,
			MaxDuration: 30 * time.Second,
			MinQuality:  3, // findings
		},
		Writer: StageConfig{
			Model:       "gpt-4-turbo-preview",
			Temperature: 0.7,
			MaxTokens:   2000,
			MaxDuration: 45 * time.Second,
			MinQuality:  400, // words
		},
		Newsletter: StageConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.5,
			MaxTokens:   800,
			MaxDuration: 20 * time.Second,
			MinQuality:  150, // words
		},
	}
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
