package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Fatalf("unexpected upload dir: %s", cfg.Upload.Dir)
	}
	if cfg.Pipeline.Timeout != 120*time.Second {
		t.Fatalf("unexpected pipeline timeout: %s", cfg.Pipeline.Timeout)
	}
	if cfg.Stream.PacingMin != 300*time.Millisecond || cfg.Stream.PacingMax != 700*time.Millisecond {
		t.Fatalf("unexpected pacing window: %s-%s", cfg.Stream.PacingMin, cfg.Stream.PacingMax)
	}
	if cfg.AI.Enabled() {
		t.Fatalf("AI should be disabled without credentials")
	}
}

func TestLoadPortVariants(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "bad port")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for PORT with spaces")
	}
}

func TestLoadRejectsInvertedPacingWindow(t *testing.T) {
	t.Setenv("STREAM_PACING_MIN_MS", "800")
	t.Setenv("STREAM_PACING_MAX_MS", "200")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for inverted pacing window")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cfg := AIConfig{Model: "doubao-pro", APIKey: "key"}
	if !cfg.Enabled() {
		t.Fatalf("expected enabled with api key + model")
	}
	if (AIConfig{Model: "doubao-pro"}).Enabled() {
		t.Fatalf("model without credentials must be disabled")
	}
}
