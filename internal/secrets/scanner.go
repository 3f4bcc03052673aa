// Package secrets implements the severity-tiered secret detection and
// redaction engine. Scanning is pure, synchronous text analysis: no
// I/O, no retries, no shared mutable state.
package secrets

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Defaults for false-positive suppression. Both are tunable via Config;
// the values are documented policy, not guesses to refine silently.
const (
	DefaultEntropyThreshold = 3.0
	DefaultProximityWindow  = 100
)

// DefaultPlaceholderMarkers suppress generic key/token matches when one
// appears in the surrounding window.
var DefaultPlaceholderMarkers = []string{"example", "placeholder", "test", "dummy", "fake"}

// Config tunes the scanner's registry and suppression heuristics.
// The zero value selects all defaults.
type Config struct {
	// EntropyThreshold suppresses generic candidates whose Shannon
	// entropy falls below it. Zero selects the default; a negative
	// value disables entropy suppression entirely.
	EntropyThreshold   float64
	PlaceholderMarkers []string
	ProximityWindow    int
	ExtraPatterns      []Pattern
}

// Scanner runs an ordered pattern registry over text. Safe for
// concurrent use: all state is read-only after construction.
type Scanner struct {
	patterns     []Pattern
	entropy      float64
	placeholders []string
	window       int
}

// NewScanner builds a scanner from the default registry plus any extra
// patterns in cfg. Zero-valued tunables fall back to defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.EntropyThreshold == 0 {
		cfg.EntropyThreshold = DefaultEntropyThreshold
	}
	if cfg.ProximityWindow == 0 {
		cfg.ProximityWindow = DefaultProximityWindow
	}
	if cfg.PlaceholderMarkers == nil {
		cfg.PlaceholderMarkers = DefaultPlaceholderMarkers
	}

	patterns := DefaultRegistry()
	patterns = append(patterns, cfg.ExtraPatterns...)

	lowered := make([]string, len(cfg.PlaceholderMarkers))
	for i, m := range cfg.PlaceholderMarkers {
		lowered[i] = strings.ToLower(m)
	}

	return &Scanner{
		patterns:     patterns,
		entropy:      cfg.EntropyThreshold,
		placeholders: lowered,
		window:       cfg.ProximityWindow,
	}
}

// DetectedSecret is a single surviving match. Constructed only after
// false-positive suppression — a rejected match never becomes one.
type DetectedSecret struct {
	Type        string   `json:"type"`
	MatchedText string   `json:"matched_text"`
	Offset      int      `json:"offset"`
	Severity    Severity `json:"severity"`
	Excerpt     string   `json:"excerpt"`
}

// ScanResult is the immutable outcome of one scan. RedactedText is
// computed once during the scan and never mutated afterward.
type ScanResult struct {
	HasSecrets    bool             `json:"has_secrets"`
	Secrets       []DetectedSecret `json:"secrets"`
	RedactedText  string           `json:"redacted_text"`
	TotalCount    int              `json:"total_count"`
	CriticalCount int              `json:"critical_count"`
}

// RedactionMarker returns the literal marker substituted for a secret
// of the given type. Downstream consumers treat it as opaque.
func RedactionMarker(typeName string) string {
	return fmt.Sprintf("[REDACTED: %s]", typeName)
}

type candidate struct {
	start, end int
	pattern    int
}

// Scan runs the full registry over text, applies suppression, resolves
// overlaps (earliest start wins, then longest, then registry order),
// and builds the redacted output. Always succeeds.
func (s *Scanner) Scan(text string) ScanResult {
	schemes := schemeOffsets(text)

	var candidates []candidate
	for i, p := range s.patterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			if p.CatchAll && s.suppressCatchAll(match, loc[0], schemes) {
				continue
			}
			if p.Generic && s.suppressPlaceholder(text, loc[0], loc[1]) {
				continue
			}
			candidates = append(candidates, candidate{start: loc[0], end: loc[1], pattern: i})
		}
	}

	if len(candidates) == 0 {
		return ScanResult{RedactedText: text, Secrets: []DetectedSecret{}}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		if candidates[i].end != candidates[j].end {
			return candidates[i].end > candidates[j].end
		}
		return candidates[i].pattern < candidates[j].pattern
	})

	kept := candidates[:0]
	lastEnd := -1
	for _, c := range candidates {
		if c.start < lastEnd {
			continue
		}
		kept = append(kept, c)
		lastEnd = c.end
	}

	secrets := make([]DetectedSecret, 0, len(kept))
	critical := 0
	for _, c := range kept {
		p := s.patterns[c.pattern]
		if p.Severity == SeverityCritical {
			critical++
		}
		secrets = append(secrets, DetectedSecret{
			Type:        p.Type,
			MatchedText: text[c.start:c.end],
			Offset:      c.start,
			Severity:    p.Severity,
			Excerpt:     excerpt(text, c.start, c.end),
		})
	}

	// Redact in descending offset order so earlier offsets stay valid
	// while later matches are spliced out. This ordering is a
	// correctness invariant, not a style choice.
	redacted := text
	for i := len(kept) - 1; i >= 0; i-- {
		c := kept[i]
		redacted = redacted[:c.start] + RedactionMarker(s.patterns[c.pattern].Type) + redacted[c.end:]
	}

	return ScanResult{
		HasSecrets:    true,
		Secrets:       secrets,
		RedactedText:  redacted,
		TotalCount:    len(secrets),
		CriticalCount: critical,
	}
}

// suppressCatchAll drops catch-all matches that are almost certainly
// benign: content hashes, URL path segments, and low-entropy strings.
func (s *Scanner) suppressCatchAll(match string, start int, schemes []int) bool {
	if isLowercaseHex(match) {
		return true
	}
	for _, off := range schemes {
		if start > off && start-off <= s.window {
			return true
		}
	}
	return ShannonEntropy(match) < s.entropy
}

// suppressPlaceholder drops generic assignment matches whose
// surrounding window carries an explicit placeholder marker.
func (s *Scanner) suppressPlaceholder(text string, start, end int) bool {
	lo := start - s.window
	if lo < 0 {
		lo = 0
	}
	hi := end + s.window
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, m := range s.placeholders {
		if strings.Contains(window, m) {
			return true
		}
	}
	return false
}

// schemeOffsets returns the byte offsets of every URL scheme marker.
func schemeOffsets(text string) []int {
	var offs []int
	idx := 0
	for {
		i := strings.Index(text[idx:], "://")
		if i < 0 {
			return offs
		}
		offs = append(offs, idx+i)
		idx += i + 3
	}
}

const excerptRadius = 40

func excerpt(text string, start, end int) string {
	lo := start - excerptRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + excerptRadius
	if hi > len(text) {
		hi = len(text)
	}
	// The radius is in bytes; slicing inside a multi-byte rune would
	// leave invalid UTF-8 in the excerpt.
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}
