package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Analysis.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.Analysis.BatchSize)
	}
	if cfg.Analysis.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Analysis.MaxAttempts)
	}
	if cfg.Analysis.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.Analysis.RetryDelay)
	}
	if cfg.Analysis.HighlightsLimit != 10 {
		t.Errorf("HighlightsLimit = %d, want 10", cfg.Analysis.HighlightsLimit)
	}
	if cfg.Ledger.Path != filepath.Join("data", "rss_history.txt") {
		t.Errorf("Ledger.Path = %q", cfg.Ledger.Path)
	}
	if cfg.Paths.PodcastsDir != filepath.Join("data", "podcasts") {
		t.Errorf("PodcastsDir = %q", cfg.Paths.PodcastsDir)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Validate() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  base_url: https://example.com/v1
  api_key: from-file
  model: test-model
paths:
  data_dir: /tmp/autorss-data
analysis:
  batch_size: 7
  retry_delay: 250ms
  max_attempts: 0
ledger:
  backend: sqlite
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "test-model" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Analysis.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", cfg.Analysis.BatchSize)
	}
	if cfg.Analysis.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay = %v", cfg.Analysis.RetryDelay)
	}
	if cfg.Analysis.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want default 3", cfg.Analysis.MaxAttempts)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("Ledger.Backend = %q", cfg.Ledger.Backend)
	}
	if cfg.Paths.SummariesDir() != filepath.Join("/tmp/autorss-data", "summaries") {
		t.Errorf("SummariesDir() = %q", cfg.Paths.SummariesDir())
	}
	if cfg.Ledger.Path != filepath.Join("/tmp/autorss-data", "rss_history.txt") {
		t.Errorf("Ledger.Path = %q, want it under data_dir", cfg.Ledger.Path)
	}
	if cfg.Paths.PodcastsDir != filepath.Join("/tmp/autorss-data", "podcasts") {
		t.Errorf("PodcastsDir = %q, want it under data_dir", cfg.Paths.PodcastsDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_ExplicitPathsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
paths:
  data_dir: /srv/data
  podcasts_dir: /srv/audio
ledger:
  path: /srv/ledger.txt
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Paths.PodcastsDir != "/srv/audio" || cfg.Ledger.Path != "/srv/ledger.txt" {
		t.Errorf("paths = %q, %q", cfg.Paths.PodcastsDir, cfg.Ledger.Path)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() expected error for invalid yaml")
	}
}
