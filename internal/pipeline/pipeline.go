// Package pipeline wires the four processing stages into the two
// operations callers actually run: Process (intake) and Distribute
// (publication). Intake sanitizes a primary document and assembles its
// admitted context; publication scans and gates the final content.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/docguard/internal/assemble"
	"github.com/ppiankov/docguard/internal/cache"
	"github.com/ppiankov/docguard/internal/gate"
	"github.com/ppiankov/docguard/internal/model"
	"github.com/ppiankov/docguard/internal/sanitize"
	"github.com/ppiankov/docguard/internal/secrets"
)

// ScanCache lets repeated scans of unchanged content skip the pattern
// pass. May be nil.
type ScanCache interface {
	Get(key string) (secrets.ScanResult, bool)
	Put(key string, res secrets.ScanResult) error
}

// Options configures a Gatekeeper.
type Options struct {
	Sanitizer sanitize.Config
	Scanner   secrets.Config
	Gate      gate.Config
	Assembler assemble.Options

	// Fingerprint identifies the active configuration for cache
	// keying. Typically the config file hash.
	Fingerprint string

	Cache ScanCache
	Sink  model.EventSink
}

// Gatekeeper runs documents through the security pipeline. Safe for
// concurrent use.
type Gatekeeper struct {
	sanitizer   *sanitize.Sanitizer
	scanner     *secrets.Scanner
	assembler   *assemble.Assembler
	validator   *gate.Validator
	assembleOpt assemble.Options
	fingerprint string
	cache       ScanCache
}

// ProcessResult is the outcome of intake: sanitized primary content
// plus the admitted context set.
type ProcessResult struct {
	Sanitized sanitize.Result
	Assembly  *assemble.Result
}

// DistributeResult is the outcome of a publication attempt.
type DistributeResult struct {
	Scan       secrets.ScanResult
	Validation gate.Result
}

// New builds a Gatekeeper. resolver may be nil when only Distribute
// and Scan are needed.
func New(resolver assemble.Resolver, opts Options) (*Gatekeeper, error) {
	scanner := secrets.NewScanner(opts.Scanner)
	validator, err := gate.New(scanner, opts.Sink, opts.Gate)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}
	g := &Gatekeeper{
		sanitizer:   sanitize.New(opts.Sanitizer),
		scanner:     scanner,
		validator:   validator,
		assembleOpt: opts.Assembler,
		fingerprint: opts.Fingerprint,
		cache:       opts.Cache,
	}
	if resolver != nil {
		g.assembler = assemble.New(resolver, opts.Sink)
	}
	return g, nil
}

// SanitizeText runs only the sanitization stage.
func (g *Gatekeeper) SanitizeText(text string) sanitize.Result {
	return g.sanitizer.Sanitize(text)
}

// Scan runs only the secret scanning stage, consulting the cache.
func (g *Gatekeeper) Scan(text string) secrets.ScanResult {
	if g.cache != nil {
		key := cache.Key(text, g.fingerprint)
		if res, ok := g.cache.Get(key); ok {
			return res
		}
		res := g.scanner.Scan(text)
		if err := g.cache.Put(key, res); err != nil {
			// Persistence failure only costs a rescan next time.
			fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", err)
		}
		return res
	}
	return g.scanner.Scan(text)
}

// Process runs intake for a stored document: resolve and load it,
// sanitize its body, and assemble its declared context documents under
// the sensitivity hierarchy. The returned assembly carries the
// sanitized primary body.
func (g *Gatekeeper) Process(ctx context.Context, primaryPath string, identity string) (*ProcessResult, error) {
	if g.assembler == nil {
		return nil, fmt.Errorf("no document resolver configured")
	}
	opts := g.assembleOpt
	opts.RequestingIdentity = identity

	asm, err := g.assembler.Assemble(ctx, primaryPath, opts)
	if err != nil {
		return nil, err
	}

	san := g.sanitizer.Sanitize(asm.PrimaryDocument.Body)
	if err := g.sanitizer.Validate(asm.PrimaryDocument.Body, san.SanitizedText); err != nil {
		return nil, fmt.Errorf("sanitize %s: %w", primaryPath, err)
	}
	asm.PrimaryDocument.Body = san.SanitizedText

	return &ProcessResult{Sanitized: san, Assembly: asm}, nil
}

// Distribute gates content for publication. It always rescans: content
// may have been modified since intake. Returns gate.BlockedError when
// publication must not proceed.
func (g *Gatekeeper) Distribute(content string, meta model.Metadata, opts gate.Options) (*DistributeResult, error) {
	scan := g.Scan(content)
	res, err := g.validator.Validate(content, meta, opts)
	out := &DistributeResult{Scan: scan, Validation: res}
	if err != nil {
		return out, err
	}
	return out, nil
}
