// Package config loads the unified docguard configuration: scanner
// tuning, sanitizer thresholds, assembler limits, gate policy, audit
// and cache locations, and alert webhooks.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/docguard/internal/alert"
	"github.com/ppiankov/docguard/internal/secrets"
)

// ScannerConfig tunes secret detection.
type ScannerConfig struct {
	EntropyThreshold   float64         `yaml:"entropy_threshold"`
	PlaceholderMarkers []string        `yaml:"placeholder_markers"`
	ProximityWindow    int             `yaml:"proximity_window"`
	ExtraPatterns      []PatternConfig `yaml:"extra_patterns"`
}

// PatternConfig is an organization-specific secret pattern added on
// top of the built-in registry.
type PatternConfig struct {
	Type     string `yaml:"type"`
	Severity string `yaml:"severity"`
	Regex    string `yaml:"regex"`
}

// SanitizerConfig tunes input sanitization.
type SanitizerConfig struct {
	ImperativeDensity float64 `yaml:"imperative_density"`
	MaxRemovalRatio   float64 `yaml:"max_removal_ratio"`
}

// AssemblerConfig tunes context assembly.
type AssemblerConfig struct {
	MaxContextDocuments     int  `yaml:"max_context_documents"`
	AllowCircularReferences bool `yaml:"allow_circular_references"`
	FailOnValidationError   bool `yaml:"fail_on_validation_error"`
	StrictMetadata          bool `yaml:"strict_metadata"`
}

// GateConfig tunes the pre-distribution validator.
type GateConfig struct {
	StrictMode            bool     `yaml:"strict_mode"`
	ExtraBlockingPatterns []string `yaml:"extra_blocking_patterns"`
	ExtraWarningKeywords  []string `yaml:"extra_warning_keywords"`
}

// AuditConfig locates the hash-chained audit log.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig locates the scan-result cache.
type CacheConfig struct {
	Path       string `yaml:"path"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config holds all configurable docguard parameters.
type Config struct {
	DocumentsRoot string                `yaml:"documents_root"`
	Scanner       ScannerConfig         `yaml:"scanner"`
	Sanitizer     SanitizerConfig       `yaml:"sanitizer"`
	Assembler     AssemblerConfig       `yaml:"assembler"`
	Gate          GateConfig            `yaml:"gate"`
	Audit         AuditConfig           `yaml:"audit"`
	Cache         CacheConfig           `yaml:"cache"`
	Webhooks      []alert.WebhookConfig `yaml:"webhooks"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DocumentsRoot: ".",
		Scanner: ScannerConfig{
			EntropyThreshold:   secrets.DefaultEntropyThreshold,
			PlaceholderMarkers: secrets.DefaultPlaceholderMarkers,
			ProximityWindow:    secrets.DefaultProximityWindow,
		},
		Sanitizer: SanitizerConfig{
			ImperativeDensity: 0.3,
			MaxRemovalRatio:   0.7,
		},
		Assembler: AssemblerConfig{
			MaxContextDocuments: 10,
		},
		Cache: CacheConfig{
			MaxAgeDays: 30,
		},
	}
}

// ScannerSettings converts the YAML scanner section into the scanner's
// native configuration, compiling any extra patterns.
func (c *Config) ScannerSettings() (secrets.Config, error) {
	threshold := c.Scanner.EntropyThreshold
	if threshold == 0 {
		// Defaults are applied by DefaultConfig before the file is
		// overlaid, so zero here was written deliberately: keep every
		// candidate. The scanner reserves zero for "use the default",
		// so pass its disabled sentinel instead.
		threshold = -1
	}
	cfg := secrets.Config{
		EntropyThreshold:   threshold,
		PlaceholderMarkers: c.Scanner.PlaceholderMarkers,
		ProximityWindow:    c.Scanner.ProximityWindow,
	}
	for _, p := range c.Scanner.ExtraPatterns {
		if p.Type == "" {
			return secrets.Config{}, fmt.Errorf("extra pattern missing type")
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return secrets.Config{}, fmt.Errorf("invalid pattern %q: %w", p.Type, err)
		}
		severity := p.Severity
		if severity == "" {
			severity = "high"
		}
		cfg.ExtraPatterns = append(cfg.ExtraPatterns, secrets.Pattern{
			Type:     p.Type,
			Severity: secrets.Severity(severity),
			Regex:    re,
		})
	}
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file.
// Empty path falls back to ~/.docguard/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads configuration and returns its SHA-256 hash.
// The hash is computed over the raw YAML bytes on disk and recorded in
// every audit entry, so log readers know which policy was in force.
// When no file exists (defaults used), the hash is the SHA-256 of
// empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			h := sha256.Sum256(nil)
			return DefaultConfig(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		path = filepath.Join(home, ".docguard", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultConfig(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := cfg.ScannerSettings(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}

// DefaultConfigYAML returns a commented YAML string for docguard init.
func DefaultConfigYAML() string {
	return `# docguard configuration
# Generated by: docguard init

# Root directory for document references. Context document paths are
# resolved relative to this directory and may not escape it.
documents_root: .

# Secret scanner tuning.
scanner:
  # Shannon entropy (bits per character) below which a generic
  # candidate is treated as non-random and suppressed. 0 keeps every
  # candidate.
  entropy_threshold: 3.0
  # A candidate is suppressed when any of these markers appears in the
  # surrounding text window.
  placeholder_markers: [example, placeholder, test, dummy, fake]
  # Character window used for placeholder and URL proximity checks.
  proximity_window: 100
  # Organization-specific patterns added to the built-in registry.
  # extra_patterns:
  #   - type: INTERNAL_BADGE_ID
  #     severity: high
  #     regex: 'BADGE-[0-9]{6}'

# Input sanitizer tuning.
sanitizer:
  # Ratio of imperative vocabulary to total words above which content
  # is flagged as instruction-shaped.
  imperative_density: 0.3
  # Fraction of input sanitization may remove before validation treats
  # the pass itself as over-aggressive.
  max_removal_ratio: 0.7

# Context assembler limits.
assembler:
  max_context_documents: 10
  allow_circular_references: false
  fail_on_validation_error: false
  # Fail closed on documents without metadata instead of defaulting
  # them to internal.
  strict_metadata: false

# Pre-distribution gate policy.
gate:
  # Escalate warning-severity findings into a manual review block.
  strict_mode: false
  # extra_blocking_patterns:
  #   - '(?i)\bemployee\s+ssn\b'
  # extra_warning_keywords:
  #   - embargoed

# Hash-chained audit log. Empty path disables file auditing.
audit:
  path: ""

# Scan-result cache. Empty path keeps the cache in memory only.
cache:
  path: ""
  max_age_days: 30

# Alert webhooks. Events may list event types
# (secret_detected, sensitivity_rejection, distribution_blocked,
# manual_review_required) and/or severities (critical, high, medium).
# An empty events list matches everything.
# webhooks:
#   - url: https://hooks.slack.com/services/T000/B000/XXXX
#     format: slack
#     events: [critical, distribution_blocked]
`
}
