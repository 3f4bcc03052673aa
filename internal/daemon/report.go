// Package daemon implements the docguard inbox watch service.
// Documents dropped into the inbox are sanitized, scanned, and gated;
// a JSON report lands in the outbox and the document moves to
// released/ or quarantine/ depending on the verdict.
package daemon

import (
	"regexp"
	"time"
)

// Report status values.
const (
	StatusReleased    = "released"
	StatusQuarantined = "quarantined"
	StatusFailed      = "failed"
)

// Report is written to the outbox after processing a document.
type Report struct {
	Document        string    `json:"document"`
	Status          string    `json:"status"`
	Sanitized       bool      `json:"sanitized"`
	RemovedContent  []string  `json:"removed_content,omitempty"`
	SecretsDetected []string  `json:"secrets_detected,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	BlockingReasons []string  `json:"blocking_reasons,omitempty"`
	Error           string    `json:"error,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// validName matches document file names the daemon will accept:
// alphanumerics, dots, dashes, and underscores only. Anything else is
// rejected before the path is used to build report and state paths.
var validName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
