package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/docguard/internal/assemble"
	"github.com/ppiankov/docguard/internal/gate"
	"github.com/ppiankov/docguard/internal/model"
)

// --- Input/Output types ---

// SanitizeInput defines parameters for the docguard_sanitize tool.
type SanitizeInput struct {
	Text string `json:"text" jsonschema:"document text to sanitize"`
}

// SanitizeOutput contains the cleaned text and removal audit.
type SanitizeOutput struct {
	SanitizedText  string   `json:"sanitized_text"`
	Flagged        bool     `json:"flagged"`
	RemovedContent []string `json:"removed_content,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// ScanInput defines parameters for the docguard_scan tool.
type ScanInput struct {
	Text string `json:"text" jsonschema:"text to scan for secrets"`
}

// ScanOutput contains detections and the redacted copy.
type ScanOutput struct {
	HasSecrets    bool            `json:"has_secrets"`
	Secrets       []ScanDetection `json:"secrets,omitempty"`
	RedactedText  string          `json:"redacted_text"`
	TotalCount    int             `json:"total_count"`
	CriticalCount int             `json:"critical_count"`
}

// ScanDetection describes one detected secret. Excerpt carries the
// surrounding text including the match itself; callers that must not
// see secret material should use RedactedText.
type ScanDetection struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Severity string `json:"severity"`
	Excerpt  string `json:"excerpt"`
}

// AssembleInput defines parameters for the docguard_assemble tool.
type AssembleInput struct {
	Path string `json:"path" jsonschema:"primary document path relative to the configured documents root"`
}

// AssembleOutput contains the admitted context set.
type AssembleOutput struct {
	Primary   AssembledDocument   `json:"primary"`
	Context   []AssembledDocument `json:"context"`
	Warnings  []string            `json:"warnings,omitempty"`
	Rejected  []RejectedContext   `json:"rejected,omitempty"`
	NotFound  bool                `json:"not_found,omitempty"`
	ErrorText string              `json:"error,omitempty"`
}

// AssembledDocument is one document in an assembly result.
type AssembledDocument struct {
	Path        string `json:"path"`
	Sensitivity string `json:"sensitivity"`
	Body        string `json:"body"`
}

// RejectedContext describes one context document that was not admitted.
type RejectedContext struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidateInput defines parameters for the docguard_validate tool.
type ValidateInput struct {
	Content string `json:"content" jsonschema:"content to validate for publication"`
	Strict  bool   `json:"strict,omitempty" jsonschema:"escalate warnings into a manual review block"`
}

// ValidateOutput contains the gate decision.
type ValidateOutput struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	BlockingReasons []string `json:"blocking_reasons,omitempty"`
}

// --- Handlers ---

func (s *Server) handleSanitize(_ context.Context, _ *mcpsdk.CallToolRequest, input SanitizeInput) (*mcpsdk.CallToolResult, SanitizeOutput, error) {
	res := s.gk.SanitizeText(input.Text)
	return nil, SanitizeOutput{
		SanitizedText:  res.SanitizedText,
		Flagged:        res.Flagged,
		RemovedContent: res.RemovedDescriptions,
		Reason:         res.Reason,
	}, nil
}

func (s *Server) handleScan(_ context.Context, _ *mcpsdk.CallToolRequest, input ScanInput) (*mcpsdk.CallToolResult, ScanOutput, error) {
	res := s.gk.Scan(input.Text)
	out := ScanOutput{
		HasSecrets:    res.HasSecrets,
		RedactedText:  res.RedactedText,
		TotalCount:    res.TotalCount,
		CriticalCount: res.CriticalCount,
	}
	for _, sec := range res.Secrets {
		out.Secrets = append(out.Secrets, ScanDetection{
			Type:     sec.Type,
			Offset:   sec.Offset,
			Severity: string(sec.Severity),
			Excerpt:  sec.Excerpt,
		})
	}
	return nil, out, nil
}

func (s *Server) handleAssemble(ctx context.Context, _ *mcpsdk.CallToolRequest, input AssembleInput) (*mcpsdk.CallToolResult, AssembleOutput, error) {
	res, err := s.gk.Process(ctx, input.Path, s.identity)
	if err != nil {
		var nf *assemble.NotFoundError
		if errors.As(err, &nf) {
			return &mcpsdk.CallToolResult{IsError: true},
				AssembleOutput{NotFound: true, ErrorText: err.Error()}, nil
		}
		var ve *assemble.ValidationError
		if errors.As(err, &ve) {
			return &mcpsdk.CallToolResult{IsError: true},
				AssembleOutput{ErrorText: err.Error()}, nil
		}
		return nil, AssembleOutput{}, err
	}

	asm := res.Assembly
	out := AssembleOutput{
		Primary:  toAssembled(asm.PrimaryDocument),
		Warnings: asm.Warnings,
	}
	for _, d := range asm.AdmittedContextDocuments {
		out.Context = append(out.Context, toAssembled(d))
	}
	for _, r := range asm.RejectedContexts {
		out.Rejected = append(out.Rejected, RejectedContext{Path: r.Path, Reason: r.Reason})
	}
	return nil, out, nil
}

func (s *Server) handleValidate(_ context.Context, _ *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ValidateOutput, error) {
	res, err := s.gk.Distribute(input.Content, model.Metadata{}, gate.Options{
		StrictMode:         input.Strict || s.strict,
		RequestingIdentity: s.identity,
	})
	out := ValidateOutput{
		Valid:           res.Validation.Valid,
		Errors:          res.Validation.Errors,
		Warnings:        res.Validation.Warnings,
		BlockingReasons: res.Validation.BlockingReasons,
	}
	if err != nil {
		var blocked *gate.BlockedError
		if errors.As(err, &blocked) {
			return &mcpsdk.CallToolResult{IsError: true}, out, nil
		}
		return nil, ValidateOutput{}, err
	}
	return nil, out, nil
}

func toAssembled(d model.Document) AssembledDocument {
	return AssembledDocument{
		Path:        d.Path,
		Sensitivity: string(d.Sensitivity),
		Body:        d.Body,
	}
}
