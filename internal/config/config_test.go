package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newswatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()

	if cfg.Port != 3001 {
		t.Errorf("Expected default port 3001, got %d", cfg.Port)
	}
	if cfg.ScanInterval != 10*time.Minute {
		t.Errorf("Expected scan interval 10m, got %v", cfg.ScanInterval)
	}
	if cfg.KeywordDelay != 500*time.Millisecond {
		t.Errorf("Expected keyword delay 500ms, got %v", cfg.KeywordDelay)
	}
	if cfg.Geo != "TR" || cfg.Language != "tr" {
		t.Errorf("Expected region TR/tr, got %s/%s", cfg.Geo, cfg.Language)
	}
	if len(cfg.SeedKeywords) == 0 {
		t.Error("Expected seed keywords")
	}
	if cfg.GetAddress() != ":3001" {
		t.Errorf("Unexpected address %s", cfg.GetAddress())
	}
}

func TestGetConfigEnvOverrides(t *testing.T) {
	t.Setenv("NEWSWATCH_PORT", "8080")
	t.Setenv("NEWSWATCH_DB_PATH", "/tmp/override.db")
	t.Setenv("NEWSWATCH_GEO", "US")

	cfg := GetConfig()
	if cfg.Port != 8080 {
		t.Errorf("Env port override ignored: %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Errorf("Env db path override ignored: %s", cfg.DBPath)
	}
	if cfg.Geo != "US" {
		t.Errorf("Env geo override ignored: %s", cfg.Geo)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), GetConfig())
	if err != nil {
		t.Fatalf("Missing file treated as error: %v", err)
	}
	if cfg.Port != 3001 {
		t.Errorf("Missing file changed defaults: %d", cfg.Port)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
port: 4000
geo: DE
language: de
scan_interval: 5m
keyword_delay: 1s
seed_keywords:
  - wahl
  - bundesliga
mining:
  window: 48h
  word_threshold: 5
  stop_words:
    - der
    - die
`)

	cfg, err := LoadFile(path, GetConfig())
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("port not applied: %d", cfg.Port)
	}
	if cfg.Geo != "DE" || cfg.Language != "de" {
		t.Errorf("region not applied: %s/%s", cfg.Geo, cfg.Language)
	}
	if cfg.ScanInterval != 5*time.Minute {
		t.Errorf("scan_interval not applied: %v", cfg.ScanInterval)
	}
	if cfg.KeywordDelay != time.Second {
		t.Errorf("keyword_delay not applied: %v", cfg.KeywordDelay)
	}
	if len(cfg.SeedKeywords) != 2 || cfg.SeedKeywords[0] != "wahl" {
		t.Errorf("seed_keywords not applied: %v", cfg.SeedKeywords)
	}
	if cfg.SuggestWindow != 48*time.Hour {
		t.Errorf("mining.window not applied: %v", cfg.SuggestWindow)
	}
	if cfg.WordThreshold != 5 {
		t.Errorf("mining.word_threshold not applied: %d", cfg.WordThreshold)
	}
	if len(cfg.StopWords) != 2 {
		t.Errorf("mining.stop_words not applied: %v", cfg.StopWords)
	}
	// Untouched settings keep their defaults.
	if cfg.TrendsInterval != 30*time.Minute {
		t.Errorf("trends_interval changed unexpectedly: %v", cfg.TrendsInterval)
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	path := writeConfigFile(t, "scan_interval: often\n")
	if _, err := LoadFile(path, GetConfig()); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestLoadFileMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "port: [not closed\n")
	if _, err := LoadFile(path, GetConfig()); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
