// Package assemble resolves a primary document's declared context
// documents and admits only those whose sensitivity is equal to or
// lower than the primary's. A rejection is not an error for the
// caller: the pipeline degrades gracefully by omitting the offending
// document and recording why.
package assemble

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/docguard/internal/model"
)

// DefaultMaxContextDocuments caps how many declared references one
// assembly call will resolve.
const DefaultMaxContextDocuments = 10

// resolveConcurrency bounds the resolution fan-out. Each fetch is
// independent; reporting order still follows declaration order.
const resolveConcurrency = 4

// Resolution is the outcome of resolving a document path.
type Resolution struct {
	Exists   bool
	Location string
}

// Resolver is the external document storage contract. The assembler
// never accesses storage directly and never caches fetches — caching
// belongs to the tiered-cache collaborator.
type Resolver interface {
	Resolve(ctx context.Context, path string) (Resolution, error)
	Read(ctx context.Context, location string) (string, error)
}

// Options tunes one assembly call. The zero value selects defaults.
type Options struct {
	MaxContextDocuments     int
	AllowCircularReferences bool

	// FailOnValidationError turns invalid metadata values (for example
	// an unknown sensitivity string) into hard errors for the primary
	// and rejections for context documents, instead of warnings.
	FailOnValidationError bool

	// StrictMetadata fails closed when a document carries no metadata
	// block at all, instead of silently defaulting to internal.
	StrictMetadata bool

	RequestingIdentity string
}

// Rejection names a context document that was not admitted, and why.
type Rejection struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result reports everything a single Assemble call decided, including
// every warning and rejection — callers never need a second call to
// discover partial admission.
type Result struct {
	PrimaryDocument          model.Document   `json:"primary_document"`
	AdmittedContextDocuments []model.Document `json:"admitted_context_documents"`
	Warnings                 []string         `json:"warnings"`
	RejectedContexts         []Rejection      `json:"rejected_contexts"`
}

// NotFoundError reports an unresolvable primary document.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

// ValidationError reports invalid primary metadata in strict mode.
type ValidationError struct {
	Path   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid metadata in %s: %s", e.Path, e.Detail)
}

// Assembler is a pure evaluator over resolved text. Safe for
// concurrent use: the visited set lives per call, never on the struct.
type Assembler struct {
	resolver Resolver
	sink     model.EventSink
}

// New creates an assembler. sink may be nil when no audit trail is
// wired (tests); hierarchy rejections are then only reported in the
// result.
func New(resolver Resolver, sink model.EventSink) *Assembler {
	return &Assembler{resolver: resolver, sink: sink}
}

type fetchOutcome struct {
	doc      model.Document
	warnings []string
	notFound bool
	reject   string
}

// Assemble resolves the primary document, validates its metadata, and
// admits declared context documents in declaration order. Fails only
// when the primary cannot be resolved (NotFoundError) or its metadata
// is invalid under the strict options (ValidationError).
func (a *Assembler) Assemble(ctx context.Context, primaryPath string, opts Options) (*Result, error) {
	// Zero means unset; negative values from hand-edited config get
	// the same treatment rather than a slice panic below.
	if opts.MaxContextDocuments <= 0 {
		opts.MaxContextDocuments = DefaultMaxContextDocuments
	}

	result := &Result{
		AdmittedContextDocuments: []model.Document{},
		Warnings:                 []string{},
		RejectedContexts:         []Rejection{},
	}

	primary, warnings, err := a.loadDocument(ctx, primaryPath, opts)
	if err != nil {
		return nil, err
	}
	result.PrimaryDocument = primary
	result.Warnings = append(result.Warnings, warnings...)

	declared := primary.Metadata.ContextDocuments
	if len(declared) > opts.MaxContextDocuments {
		excess := len(declared) - opts.MaxContextDocuments
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"context document list exceeds the cap of %d; ignoring %d excess reference(s)",
			opts.MaxContextDocuments, excess))
		declared = declared[:opts.MaxContextDocuments]
	}

	// The visited set is constructed fresh per call. Memoizing it
	// across calls would corrupt cycle detection for concurrent
	// assemblies of different primaries.
	visited := map[string]bool{primaryPath: true}

	type task struct {
		index int
		path  string
	}
	var tasks []task
	outcomes := make([]*fetchOutcome, len(declared))

	for i, path := range declared {
		if visited[path] && !opts.AllowCircularReferences {
			outcomes[i] = &fetchOutcome{reject: "circular reference"}
			continue
		}
		visited[path] = true
		tasks = append(tasks, task{index: i, path: path})
	}

	// Fan out resolution: each fetch is an independent read-only call.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for _, tk := range tasks {
		g.Go(func() error {
			outcomes[tk.index] = a.loadContext(gctx, tk.path, opts)
			return nil
		})
	}
	_ = g.Wait()

	// Admission runs in declaration order, never completion order.
	for i, path := range declared {
		o := outcomes[i]
		result.Warnings = append(result.Warnings, o.warnings...)

		switch {
		case o.reject != "":
			result.RejectedContexts = append(result.RejectedContexts, Rejection{Path: path, Reason: o.reject})
		case o.notFound:
			result.RejectedContexts = append(result.RejectedContexts, Rejection{Path: path, Reason: "not found"})
		case !primary.Sensitivity.Admits(o.doc.Sensitivity):
			reason := fmt.Sprintf(
				"sensitivity hierarchy violation: context document %q is %s but primary document %q is %s",
				path, o.doc.Sensitivity, primaryPath, primary.Sensitivity)
			result.RejectedContexts = append(result.RejectedContexts, Rejection{Path: path, Reason: reason})
			a.emitRejection(opts.RequestingIdentity, path, reason)
		default:
			result.AdmittedContextDocuments = append(result.AdmittedContextDocuments, o.doc)
		}
	}

	return result, nil
}

// emitRejection makes every hierarchy rejection observable by an
// auditor, not merely logged at debug level.
func (a *Assembler) emitRejection(identity, path, reason string) {
	if a.sink == nil {
		return
	}
	a.sink.Emit(model.NewSecurityEvent(
		model.EventSensitivityRejection, model.SeverityHigh, identity, path, reason))
}

// loadDocument resolves, reads, and validates the primary document.
func (a *Assembler) loadDocument(ctx context.Context, path string, opts Options) (model.Document, []string, error) {
	res, err := a.resolver.Resolve(ctx, path)
	if err != nil || !res.Exists {
		return model.Document{}, nil, &NotFoundError{Path: path}
	}
	text, err := a.resolver.Read(ctx, res.Location)
	if err != nil {
		return model.Document{}, nil, &NotFoundError{Path: path}
	}

	doc, warnings, verr := parseDocument(path, res.Location, text, opts)
	if verr != nil {
		return model.Document{}, nil, verr
	}
	return doc, warnings, nil
}

// loadContext is the soft-failure variant used for context documents.
func (a *Assembler) loadContext(ctx context.Context, path string, opts Options) *fetchOutcome {
	res, err := a.resolver.Resolve(ctx, path)
	if err != nil || !res.Exists {
		return &fetchOutcome{notFound: true}
	}
	text, err := a.resolver.Read(ctx, res.Location)
	if err != nil {
		return &fetchOutcome{notFound: true}
	}

	doc, warnings, verr := parseDocument(path, res.Location, text, opts)
	if verr != nil {
		return &fetchOutcome{warnings: warnings, reject: verr.Error()}
	}
	return &fetchOutcome{doc: doc, warnings: warnings}
}

// parseDocument applies the metadata contract: no block or no
// sensitivity field defaults to internal silently; an invalid enum
// value is a validation warning, or an error under
// FailOnValidationError; StrictMetadata fails closed on a missing
// block.
func parseDocument(path, location, text string, opts Options) (model.Document, []string, error) {
	var warnings []string

	meta, body, hasBlock, err := model.ParseFrontmatter(text)
	if err != nil {
		if opts.StrictMetadata {
			return model.Document{}, warnings, &ValidationError{Path: path, Detail: err.Error()}
		}
		meta = model.Metadata{}
	}
	if !hasBlock && opts.StrictMetadata {
		return model.Document{}, warnings, &ValidationError{Path: path, Detail: "metadata block is required"}
	}

	sensitivity := model.DefaultSensitivity
	if meta.Sensitivity != "" {
		parsed, perr := model.ParseSensitivity(meta.Sensitivity)
		if perr != nil {
			if opts.FailOnValidationError {
				return model.Document{}, warnings, &ValidationError{Path: path, Detail: perr.Error()}
			}
			warnings = append(warnings, fmt.Sprintf("%s: %v; defaulting to %s", path, perr, model.DefaultSensitivity))
		} else {
			sensitivity = parsed
		}
	}
	if meta.RetentionDays < 0 {
		warnings = append(warnings, fmt.Sprintf("%s: retention_days must be non-negative", path))
		meta.RetentionDays = 0
	}

	return model.Document{
		Path:             path,
		ResolvedLocation: location,
		Sensitivity:      sensitivity,
		Metadata:         meta,
		Body:             body,
		HasMetadata:      hasBlock,
	}, warnings, nil
}
