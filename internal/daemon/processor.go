package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/docguard/internal/gate"
	"github.com/ppiankov/docguard/internal/model"
	"github.com/ppiankov/docguard/internal/pipeline"
)

// ProcessorConfig holds runtime configuration for document processing.
type ProcessorConfig struct {
	Dirs     DirConfig
	Identity string
	Strict   bool
}

// Processor runs inbox documents through the security pipeline.
type Processor struct {
	cfg ProcessorConfig
	gk  *pipeline.Gatekeeper
}

// NewProcessor creates a processor around a configured pipeline.
func NewProcessor(cfg ProcessorConfig, gk *pipeline.Gatekeeper) *Processor {
	if cfg.Identity == "" {
		cfg.Identity = "docguard-daemon"
	}
	return &Processor{cfg: cfg, gk: gk}
}

// Process handles a single inbox document through its full lifecycle:
// validate → move to processing → sanitize → scan → gate → write
// report to outbox → move document to released or quarantine.
func (p *Processor) Process(_ context.Context, docPath string) error {
	name := filepath.Base(docPath)

	// Structural symlink defense: reject symlinks before reading.
	// A symlink in the inbox would let an attacker feed arbitrary
	// filesystem content through the pipeline.
	fi, err := os.Lstat(docPath)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return p.writeFailedReport(name, "rejected symlink")
	}
	if !validName.MatchString(name) {
		return p.writeFailedReport(name, "invalid document name")
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	// Move to processing state. Uses moveFile to handle systemd bind
	// mounts (EXDEV).
	processingPath := filepath.Join(p.cfg.Dirs.ProcessingDir(), name)
	if err := moveFile(docPath, processingPath); err != nil {
		return fmt.Errorf("move to processing: %w", err)
	}

	report, sanitizedBody := p.evaluate(name, string(data))

	if err := p.writeReport(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	// Released documents carry the sanitized, frontmatter-stripped
	// body. Quarantined documents keep the original bytes for review.
	switch report.Status {
	case StatusReleased:
		releasedPath := filepath.Join(p.cfg.Dirs.ReleasedDir(), name)
		if err := atomicWrite(releasedPath, []byte(sanitizedBody)); err != nil {
			return fmt.Errorf("write released document: %w", err)
		}
		_ = os.Remove(processingPath)
	default:
		quarantinePath := filepath.Join(p.cfg.Dirs.QuarantineDir(), name)
		if err := moveFile(processingPath, quarantinePath); err != nil {
			return fmt.Errorf("move to quarantine: %w", err)
		}
	}
	return nil
}

// evaluate runs the pipeline stages and builds the report.
func (p *Processor) evaluate(name, content string) (*Report, string) {
	report := &Report{Document: name, CompletedAt: time.Now().UTC()}

	meta, body, _, err := model.ParseFrontmatter(content)
	if err != nil {
		report.Status = StatusFailed
		report.Error = fmt.Sprintf("invalid metadata: %v", err)
		return report, ""
	}

	san := p.gk.SanitizeText(body)
	report.Sanitized = san.Flagged
	report.RemovedContent = san.RemovedDescriptions

	res, gateErr := p.gk.Distribute(san.SanitizedText, meta, gate.Options{
		StrictMode:         p.cfg.Strict,
		RequestingIdentity: p.cfg.Identity,
		Document:           name,
	})
	if res != nil {
		report.Warnings = res.Validation.Warnings
		for _, s := range res.Scan.Secrets {
			report.SecretsDetected = append(report.SecretsDetected, s.Type)
		}
	}

	var blocked *gate.BlockedError
	switch {
	case gateErr == nil:
		report.Status = StatusReleased
	case errors.As(gateErr, &blocked):
		report.Status = StatusQuarantined
		report.BlockingReasons = blocked.Reasons
	default:
		report.Status = StatusFailed
		report.Error = gateErr.Error()
	}
	return report, san.SanitizedText
}

// writeReport writes a report to the outbox directory atomically.
func (p *Processor) writeReport(r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	base := strings.TrimSuffix(r.Document, filepath.Ext(r.Document))
	return atomicWrite(filepath.Join(p.cfg.Dirs.Outbox, base+".json"), data)
}

// writeFailedReport writes a minimal failed report when the document
// cannot be processed at all.
func (p *Processor) writeFailedReport(name, errMsg string) error {
	return p.writeReport(&Report{
		Document:    name,
		Status:      StatusFailed,
		Error:       errMsg,
		CompletedAt: time.Now().UTC(),
	})
}

// atomicWrite writes data via a .tmp file and rename so readers never
// see a partial file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmp, path)
}
