// Package sanitize is the pipeline's first contact with externally
// sourced text. It strips invisible-character obfuscation and
// neutralizes instruction-override payloads before the text is used as
// model input or stored as context.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FilterToken replaces every neutralized injection phrase.
const FilterToken = "[FILTERED]"

// Defaults for the tunable heuristics.
const (
	DefaultImperativeDensity = 0.3
	DefaultMaxRemovalRatio   = 0.7
	minWordsForDensity       = 20
)

// Config tunes the sanitizer. The zero value selects all defaults.
type Config struct {
	// ImperativeDensity is the ratio of imperative vocabulary to total
	// words above which text is flagged as instruction-shaped.
	ImperativeDensity float64

	// MaxRemovalRatio is the fraction of input Validate tolerates
	// losing before treating sanitization itself as a defect.
	MaxRemovalRatio float64
}

// Result is the outcome of one sanitization pass.
// RemovedDescriptions is an append-only audit list with one entry per
// distinct technique detected, kept for later human review.
type Result struct {
	SanitizedText       string   `json:"sanitized_text"`
	Flagged             bool     `json:"flagged"`
	RemovedDescriptions []string `json:"removed_descriptions"`
	Reason              string   `json:"reason,omitempty"`
}

// Sanitizer holds the fixed obfuscation and injection tables. Safe for
// concurrent use: all state is read-only after construction.
type Sanitizer struct {
	density      float64
	removalRatio float64
}

// New builds a sanitizer. Zero-valued tunables fall back to defaults.
func New(cfg Config) *Sanitizer {
	if cfg.ImperativeDensity == 0 {
		cfg.ImperativeDensity = DefaultImperativeDensity
	}
	if cfg.MaxRemovalRatio == 0 {
		cfg.MaxRemovalRatio = DefaultMaxRemovalRatio
	}
	return &Sanitizer{density: cfg.ImperativeDensity, removalRatio: cfg.MaxRemovalRatio}
}

// invisibleCategory is one class of invisible or deceptive code points.
type invisibleCategory struct {
	name    string
	runes   map[rune]bool
	toSpace bool // replace with a normal space instead of deleting
}

var invisibleCategories = []invisibleCategory{
	{name: "zero-width space", runes: map[rune]bool{'​': true}},
	{name: "zero-width joiner/non-joiner", runes: map[rune]bool{'‌': true, '‍': true}},
	{name: "byte order mark", runes: map[rune]bool{'\uFEFF': true}},
	{name: "word joiner", runes: map[rune]bool{'⁠': true}},
	{name: "directional mark", runes: map[rune]bool{'‎': true, '‏': true, '‪': true, '‫': true, '‬': true, '‭': true, '‮': true}},
	{name: "non-breaking/typographic space", toSpace: true, runes: map[rune]bool{
		' ': true, ' ': true, ' ': true, ' ': true, ' ': true,
		' ': true, ' ': true, ' ': true, ' ': true, ' ': true,
		' ': true, ' ': true, ' ': true, ' ': true, '　': true,
	}},
}

// injectionRule pairs a phrasing pattern with its audit description.
type injectionRule struct {
	re   *regexp.Regexp
	desc string
}

var injectionRules = []injectionRule{
	{regexp.MustCompile(`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above|earlier)\s+(?:instructions|prompts|directives|rules)`),
		"instruction override phrase"},
	{regexp.MustCompile(`(?i)disregard\s+(?:all\s+)?(?:previous|prior|your|the)\s+(?:instructions|prompts|training|guidelines)`),
		"instruction override phrase"},
	{regexp.MustCompile(`(?i)forget\s+(?:everything|all\s+previous\s+instructions|your\s+instructions)`),
		"instruction override phrase"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a|an|the)\b`),
		"role reassignment phrase"},
	{regexp.MustCompile(`(?i)\bact\s+as\s+(?:a\s+|an\s+|the\s+)?(?:system|admin|root|developer|jailbroken)\b`),
		"role reassignment phrase"},
	{regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
		"instruction override phrase"},
	{regexp.MustCompile(`(?i)(?:<\|?\s*system\s*\|?>|\[\s*system\s*\]|#{2,}\s*system\b|<<SYS>>|\[INST\])`),
		"system-role delimiter markup"},
	{regexp.MustCompile(`(?i)\b(?:eval|exec)\s*\(`),
		"command execution verb"},
	{regexp.MustCompile(`(?i)\bos\.system\s*\(`),
		"command execution verb"},
	{regexp.MustCompile(`(?i)\bsubprocess\.(?:run|call|Popen)\s*\(`),
		"command execution verb"},
}

// imperativeWords is the vocabulary counted by the density heuristic.
var imperativeWords = map[string]bool{
	"ignore": true, "disregard": true, "override": true, "bypass": true,
	"execute": true, "run": true, "delete": true, "remove": true,
	"send": true, "forward": true, "reveal": true, "print": true,
	"output": true, "repeat": true, "comply": true, "obey": true,
	"respond": true, "instruct": true, "must": true, "immediately": true,
}

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	trailingWS   = regexp.MustCompile(`(?m)[ \t]+$`)
	excessLines  = regexp.MustCompile(`\n{3,}`)
)

// Sanitize cleans text in four ordered passes: Unicode normalization,
// invisible-character stripping, injection neutralization, and a final
// whitespace collapse for stable hashing downstream. It always
// succeeds and has no side effects beyond the returned result.
func (s *Sanitizer) Sanitize(text string) Result {
	result := Result{RemovedDescriptions: []string{}}

	// Pass 1: canonical composition so visually identical sequences
	// compare consistently downstream.
	text = norm.NFC.String(text)

	// Pass 2: strip invisible code points, one audit entry per category.
	text, hidden := stripInvisible(text, &result)
	var reasons []string
	if hidden {
		result.Flagged = true
		reasons = append(reasons, "Hidden text detected.")
	}

	// Pass 3: neutralize instruction-override payloads.
	if s.filterInjections(&text, &result) {
		result.Flagged = true
		reasons = append(reasons, "Injection patterns neutralized.")
	}
	if s.imperativeDensityExceeded(text) {
		result.Flagged = true
		result.RemovedDescriptions = append(result.RemovedDescriptions,
			"excessive imperative/instructional vocabulary density")
		reasons = append(reasons, "Instruction-dense content.")
	}

	// Pass 4: whitespace normalization. Not security-relevant, but
	// required for stable content hashing and caching.
	text = horizontalWS.ReplaceAllString(text, " ")
	text = trailingWS.ReplaceAllString(text, "")
	text = excessLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	result.SanitizedText = text
	result.Reason = strings.Join(reasons, " ")
	return result
}

func stripInvisible(text string, result *Result) (string, bool) {
	counts := make([]int, len(invisibleCategories))
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		replaced := false
		for i, cat := range invisibleCategories {
			if cat.runes[r] {
				counts[i]++
				if cat.toSpace {
					b.WriteRune(' ')
				}
				replaced = true
				break
			}
		}
		if !replaced {
			b.WriteRune(r)
		}
	}

	found := false
	for i, n := range counts {
		if n > 0 {
			found = true
			result.RemovedDescriptions = append(result.RemovedDescriptions,
				fmt.Sprintf("removed %d %s character(s)", n, invisibleCategories[i].name))
		}
	}
	return b.String(), found
}

func (s *Sanitizer) filterInjections(text *string, result *Result) bool {
	found := false
	for _, rule := range injectionRules {
		matches := rule.re.FindAllString(*text, -1)
		if len(matches) == 0 {
			continue
		}
		found = true
		*text = rule.re.ReplaceAllString(*text, FilterToken)
		result.RemovedDescriptions = append(result.RemovedDescriptions,
			fmt.Sprintf("neutralized %s (%d occurrence(s))", rule.desc, len(matches)))
	}
	return found
}

func (s *Sanitizer) imperativeDensityExceeded(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < minWordsForDensity {
		return false
	}
	count := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		if imperativeWords[w] {
			count++
		}
	}
	return float64(count)/float64(len(words)) > s.density
}
