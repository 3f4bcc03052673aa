package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scanner.EntropyThreshold != 3.0 {
		t.Errorf("expected entropy threshold 3.0, got %v", cfg.Scanner.EntropyThreshold)
	}
	if cfg.Scanner.ProximityWindow != 100 {
		t.Errorf("expected proximity window 100, got %d", cfg.Scanner.ProximityWindow)
	}
	if cfg.Sanitizer.ImperativeDensity != 0.3 {
		t.Errorf("expected imperative density 0.3, got %v", cfg.Sanitizer.ImperativeDensity)
	}
	if cfg.Sanitizer.MaxRemovalRatio != 0.7 {
		t.Errorf("expected removal ratio 0.7, got %v", cfg.Sanitizer.MaxRemovalRatio)
	}
	if cfg.Assembler.MaxContextDocuments != 10 {
		t.Errorf("expected context cap 10, got %d", cfg.Assembler.MaxContextDocuments)
	}
	if cfg.Gate.StrictMode {
		t.Error("expected strict mode off by default")
	}
	if cfg.Cache.MaxAgeDays != 30 {
		t.Errorf("expected cache max age 30 days, got %d", cfg.Cache.MaxAgeDays)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Scanner.EntropyThreshold != 3.0 {
		t.Errorf("expected default threshold, got %v", cfg.Scanner.EntropyThreshold)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
documents_root: /srv/docs
scanner:
  entropy_threshold: 4.5
  extra_patterns:
    - type: INTERNAL_BADGE_ID
      regex: 'BADGE-[0-9]{6}'
gate:
  strict_mode: true
  extra_warning_keywords: [embargoed]
webhooks:
  - url: https://hooks.example.invalid/x
    format: slack
    events: [critical]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatalf("LoadConfigWithHash: %v", err)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("hash = %q", hash)
	}
	if cfg.DocumentsRoot != "/srv/docs" {
		t.Errorf("documents_root = %q", cfg.DocumentsRoot)
	}
	if cfg.Scanner.EntropyThreshold != 4.5 {
		t.Errorf("entropy_threshold = %v", cfg.Scanner.EntropyThreshold)
	}
	// Unspecified fields keep defaults.
	if cfg.Scanner.ProximityWindow != 100 {
		t.Errorf("proximity_window = %d, want default 100", cfg.Scanner.ProximityWindow)
	}
	if cfg.Sanitizer.MaxRemovalRatio != 0.7 {
		t.Errorf("max_removal_ratio = %v, want default 0.7", cfg.Sanitizer.MaxRemovalRatio)
	}
	if !cfg.Gate.StrictMode {
		t.Error("strict_mode not applied")
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Format != "slack" {
		t.Errorf("webhooks = %+v", cfg.Webhooks)
	}

	sc, err := cfg.ScannerSettings()
	if err != nil {
		t.Fatalf("ScannerSettings: %v", err)
	}
	if len(sc.ExtraPatterns) != 1 {
		t.Fatalf("extra patterns = %d", len(sc.ExtraPatterns))
	}
	if sc.ExtraPatterns[0].Type != "INTERNAL_BADGE_ID" {
		t.Errorf("pattern type = %q", sc.ExtraPatterns[0].Type)
	}
	if sc.ExtraPatterns[0].Severity != "high" {
		t.Errorf("default severity = %q, want high", sc.ExtraPatterns[0].Severity)
	}
	if !sc.ExtraPatterns[0].Regex.MatchString("BADGE-123456") {
		t.Error("compiled pattern does not match")
	}
}

func TestZeroEntropyThresholdDisablesSuppression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scanner:
  entropy_threshold: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	sc, err := cfg.ScannerSettings()
	if err != nil {
		t.Fatalf("ScannerSettings: %v", err)
	}
	// The scanner treats zero as "use the default", so an explicit
	// zero must come through as the negative disabled sentinel.
	if sc.EntropyThreshold >= 0 {
		t.Errorf("EntropyThreshold = %v, want negative", sc.EntropyThreshold)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scanner: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfigInvalidPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scanner:
  extra_patterns:
    - type: BROKEN
      regex: '['
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestLoadConfigHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("documents_root: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, h1, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("documents_root: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("hash did not change with content")
	}
}

func TestDefaultConfigYAMLParses(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), &cfg); err != nil {
		t.Fatalf("default YAML does not parse: %v", err)
	}
	if cfg.Scanner.EntropyThreshold != 3.0 {
		t.Errorf("entropy_threshold = %v", cfg.Scanner.EntropyThreshold)
	}
	if cfg.Assembler.MaxContextDocuments != 10 {
		t.Errorf("max_context_documents = %d", cfg.Assembler.MaxContextDocuments)
	}
}
