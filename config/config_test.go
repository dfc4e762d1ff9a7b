package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CONTENTFLOW_TRACING", "")
	t.Setenv("CONTENTFLOW_TRACING_PROJECT", "")
	t.Setenv("CONTENTFLOW_RUN_TIMEOUT", "")

	cfg := Load()

	if cfg.Addr != ":8000" {
		t.Fatalf("expected default addr :8000, got %q", cfg.Addr)
	}
	if cfg.TracingEnabled {
		t.Fatalf("tracing should default to disabled")
	}
	if cfg.TracingProject != "contentflow-agents" {
		t.Fatalf("unexpected tracing project %q", cfg.TracingProject)
	}
	if cfg.RunTimeout != 2*time.Minute {
		t.Fatalf("unexpected run timeout %v", cfg.RunTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONTENTFLOW_TRACING", "true")
	t.Setenv("CONTENTFLOW_TRACING_PROJECT", "contentflow-staging")
	t.Setenv("CONTENTFLOW_RUN_TIMEOUT", "5m")

	cfg := Load()

	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", cfg.Addr)
	}
	if !cfg.TracingEnabled {
		t.Fatalf("expected tracing enabled")
	}
	if cfg.TracingProject != "contentflow-staging" {
		t.Fatalf("unexpected tracing project %q", cfg.TracingProject)
	}
	if cfg.RunTimeout != 5*time.Minute {
		t.Fatalf("unexpected run timeout %v", cfg.RunTimeout)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CONTENTFLOW_TRACING", "maybe")
	t.Setenv("CONTENTFLOW_RUN_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.TracingEnabled {
		t.Fatalf("unparseable tracing flag should fall back to disabled")
	}
	if cfg.RunTimeout != 2*time.Minute {
		t.Fatalf("unparseable timeout should fall back to default, got %v", cfg.RunTimeout)
	}
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()

	if stages.Research.Model != "gpt-3.5-turbo" || stages.Research.MinQuality != 3 {
		t.Fatalf("unexpected research config: %+v", stages.Research)
	}
	if stages.Research.MaxDuration != 30*time.Second {
		t.Fatalf("unexpected research duration limit: %v", stages.Research.MaxDuration)
	}
	if stages.Writer.Model != "gpt-4-turbo-preview" || stages.Writer.MinQuality != 400 {
		t.Fatalf("unexpected writer config: %+v", stages.Writer)
	}
	if stages.Writer.MaxDuration != 45*time.Second {
		t.Fatalf("unexpected writer duration limit: %v", stages.Writer.MaxDuration)
	}
	if stages.Newsletter.Model != "gpt-3.5-turbo" || stages.Newsletter.MinQuality != 150 {
		t.Fatalf("unexpected newsletter config: %+v", stages.Newsletter)
	}
	if stages.Newsletter.MaxDuration != 20*time.Second {
		t.Fatalf("unexpected newsletter duration limit: %v", stages.Newsletter.MaxDuration)
	}
}
