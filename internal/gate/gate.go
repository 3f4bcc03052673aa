// Package gate is the terminal check before any post or publish
// action. It re-runs the secret scanner regardless of upstream "clean"
// flags — one bypassed or stale check upstream must never be enough to
// leak a secret — and layers a small keyword policy on top.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/docguard/internal/model"
	"github.com/ppiankov/docguard/internal/secrets"
)

// keywordRule is a blocking policy entry.
type keywordRule struct {
	label string
	re    *regexp.Regexp
}

// blockingRules are unconditional stops: credential assignment syntax
// and private-key references have no legitimate place in distributed
// content.
var blockingRules = []keywordRule{
	{"password assignment syntax", regexp.MustCompile(`(?i)\bpassword\s*[:=]`)},
	{"secret assignment syntax", regexp.MustCompile(`(?i)\bsecret\s*[:=]`)},
	{"API key assignment syntax", regexp.MustCompile(`(?i)\bapi[_\- ]?key\s*[:=]`)},
	{"credential reference", regexp.MustCompile(`(?i)\bcredentials?\b`)},
	{"private key reference", regexp.MustCompile(`(?i)\bprivate\s+key\b`)},
}

// warningKeywords record but do not block outside strict mode.
var warningKeywords = []string{
	"confidential",
	"internal only",
	"internal use only",
	"do not share",
	"do not distribute",
	"proprietary",
	"not for public release",
}

// Config extends the fixed policy tables. Tables are configuration
// built once at startup, never mutated at runtime.
type Config struct {
	ExtraBlockingPatterns []string
	ExtraWarningKeywords  []string
}

// Options selects per-call behavior.
type Options struct {
	// StrictMode escalates warning-severity findings into a manual
	// review block.
	StrictMode bool

	RequestingIdentity string
	Document           string
}

// Result is the structured outcome of one validation. Invariant:
// Valid == false implies at least one blocking reason.
type Result struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	BlockingReasons []string `json:"blocking_reasons"`
}

// BlockedError is the catchable hard-stop condition: distribution was
// blocked for security reasons, as opposed to failing transiently.
type BlockedError struct {
	Reasons []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("distribution blocked: %s", strings.Join(e.Reasons, "; "))
}

// Validator is a stateless per-call evaluator. Safe for concurrent use.
type Validator struct {
	scanner  *secrets.Scanner
	sink     model.EventSink
	blocking []keywordRule
	warning  []string
}

// New builds a validator around the given scanner. sink may be nil in
// tests; blocks are then only reported via the result and error.
func New(scanner *secrets.Scanner, sink model.EventSink, cfg Config) (*Validator, error) {
	blocking := append([]keywordRule{}, blockingRules...)
	for _, p := range cfg.ExtraBlockingPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid blocking pattern %q: %w", p, err)
		}
		blocking = append(blocking, keywordRule{label: "policy pattern " + p, re: re})
	}

	warning := append([]string{}, warningKeywords...)
	for _, k := range cfg.ExtraWarningKeywords {
		warning = append(warning, strings.ToLower(k))
	}

	return &Validator{scanner: scanner, sink: sink, blocking: blocking, warning: warning}, nil
}

// Validate runs the full pre-distribution policy over content. A
// non-nil error is always a *BlockedError and always accompanies
// Valid == false; the result itself is populated either way so callers
// and auditors can assert on exact reasons.
func (v *Validator) Validate(content string, meta model.Metadata, opts Options) (Result, error) {
	result := Result{
		Errors:          []string{},
		Warnings:        []string{},
		BlockingReasons: []string{},
	}

	// Step 1: defense in depth — always rescan, any secret blocks.
	scan := v.scanner.Scan(content)
	if scan.HasSecrets {
		types := make([]string, 0, len(scan.Secrets))
		for _, sec := range scan.Secrets {
			types = append(types, sec.Type)
			reason := fmt.Sprintf("detected secret %s at offset %d", sec.Type, sec.Offset)
			result.BlockingReasons = append(result.BlockingReasons, reason)
			result.Errors = append(result.Errors, reason)
		}
		v.emit(model.SecurityEvent{
			EventType:          model.EventSecretDetected,
			Severity:           model.SeverityCritical,
			DetectedTypes:      types,
			RequestingIdentity: opts.RequestingIdentity,
			Document:           opts.Document,
			Reason:             fmt.Sprintf("%d secret(s) detected at the pre-distribution gate", scan.TotalCount),
		}, opts)
	}

	// Step 2: keyword policy, blocking tier.
	for _, rule := range v.blocking {
		if loc := rule.re.FindStringIndex(content); loc != nil {
			reason := fmt.Sprintf("blocking keyword: %s at offset %d", rule.label, loc[0])
			result.BlockingReasons = append(result.BlockingReasons, reason)
			result.Errors = append(result.Errors, reason)
		}
	}

	// Warning tier: recorded, and escalated only in strict mode.
	lower := strings.ToLower(content)
	for _, kw := range v.warning {
		if strings.Contains(lower, kw) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("warning keyword: %q", kw))
		}
	}
	if meta.RequiresApproval {
		result.Warnings = append(result.Warnings, "document metadata requires approval before distribution")
	}
	if meta.PIIPresent {
		result.Warnings = append(result.Warnings, "document metadata declares PII present")
	}

	if opts.StrictMode && len(result.Warnings) > 0 {
		reason := fmt.Sprintf("manual review required: %d warning-severity finding(s)", len(result.Warnings))
		result.BlockingReasons = append(result.BlockingReasons, reason)
		v.emit(model.SecurityEvent{
			EventType:          model.EventManualReview,
			Severity:           model.SeverityMedium,
			RequestingIdentity: opts.RequestingIdentity,
			Document:           opts.Document,
			Reason:             reason,
		}, opts)
	}

	result.Valid = len(result.BlockingReasons) == 0
	if result.Valid {
		return result, nil
	}

	v.emit(model.SecurityEvent{
		EventType:          model.EventDistributionBlocked,
		Severity:           model.SeverityCritical,
		RequestingIdentity: opts.RequestingIdentity,
		Document:           opts.Document,
		Reason:             strings.Join(result.BlockingReasons, "; "),
	}, opts)

	// The caller must not distribute; the flag-for-manual-review side
	// effect rides on the emitted event, the queue itself is external.
	return result, &BlockedError{Reasons: result.BlockingReasons}
}

func (v *Validator) emit(ev model.SecurityEvent, opts Options) {
	if v.sink == nil {
		return
	}
	stamped := model.NewSecurityEvent(ev.EventType, ev.Severity, opts.RequestingIdentity, opts.Document, ev.Reason)
	stamped.DetectedTypes = ev.DetectedTypes
	v.sink.Emit(stamped)
}
