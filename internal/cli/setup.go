package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/docguard/internal/alert"
	"github.com/ppiankov/docguard/internal/assemble"
	"github.com/ppiankov/docguard/internal/audit"
	"github.com/ppiankov/docguard/internal/cache"
	"github.com/ppiankov/docguard/internal/config"
	"github.com/ppiankov/docguard/internal/gate"
	"github.com/ppiankov/docguard/internal/model"
	"github.com/ppiankov/docguard/internal/pipeline"
	"github.com/ppiankov/docguard/internal/resolver"
	"github.com/ppiankov/docguard/internal/sanitize"
)

// runtime bundles everything a command needs: the pipeline plus the
// handles that must be closed on exit.
type runtime struct {
	cfg      *config.Config
	hash     string
	gk       *pipeline.Gatekeeper
	auditLog *audit.Log
	cache    *cache.Cache
	alerts   *alert.Dispatcher
	closed   bool
}

// alertFlushTimeout bounds how long a one-shot command waits for
// webhook deliveries before exiting. Covers one delivery with
// retries.
const alertFlushTimeout = 10 * time.Second

// Close is safe to call more than once: blocked outcomes close
// explicitly before os.Exit while the deferred call still runs on
// error paths.
func (r *runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.alerts != nil {
		if !r.alerts.Flush(alertFlushTimeout) {
			fmt.Fprintln(os.Stderr, "warning: webhook deliveries still pending at exit")
		}
	}
	if r.cache != nil {
		_ = r.cache.Close()
	}
	if r.auditLog != nil {
		_ = r.auditLog.Close()
	}
}

// setup loads configuration and builds the pipeline. rootOverride, when
// non-empty, replaces the configured documents root.
func setup(rootOverride string) (*runtime, error) {
	cfg, hash, err := config.LoadConfigWithHash(configPath)
	if err != nil {
		return nil, err
	}
	if rootOverride != "" {
		cfg.DocumentsRoot = rootOverride
	}

	scannerCfg, err := cfg.ScannerSettings()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, hash: hash}

	if cfg.Audit.Path != "" {
		rt.auditLog, err = audit.Open(cfg.Audit.Path, hash)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}
	rt.cache, err = cache.Open(cfg.Cache.Path)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var sinks model.MultiSink
	if rt.auditLog != nil {
		sinks = append(sinks, rt.auditLog)
	}
	if d := alert.NewDispatcher(cfg.Webhooks); d != nil {
		rt.alerts = d
		sinks = append(sinks, d)
	}

	var res assemble.Resolver
	if cfg.DocumentsRoot != "" {
		fs, err := resolver.NewFS(cfg.DocumentsRoot)
		if err != nil {
			rt.Close()
			return nil, err
		}
		res = fs
	}

	rt.gk, err = pipeline.New(res, pipeline.Options{
		Sanitizer: sanitize.Config{
			ImperativeDensity: cfg.Sanitizer.ImperativeDensity,
			MaxRemovalRatio:   cfg.Sanitizer.MaxRemovalRatio,
		},
		Scanner: scannerCfg,
		Gate: gate.Config{
			ExtraBlockingPatterns: cfg.Gate.ExtraBlockingPatterns,
			ExtraWarningKeywords:  cfg.Gate.ExtraWarningKeywords,
		},
		Assembler: assemble.Options{
			MaxContextDocuments:     cfg.Assembler.MaxContextDocuments,
			AllowCircularReferences: cfg.Assembler.AllowCircularReferences,
			FailOnValidationError:   cfg.Assembler.FailOnValidationError,
			StrictMetadata:          cfg.Assembler.StrictMetadata,
		},
		Fingerprint: hash,
		Cache:       rt.cache,
		Sink:        sinks,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// setupConfigOnly loads configuration without building the pipeline.
func setupConfigOnly() (*config.Config, error) {
	return config.LoadConfig(configPath)
}

// readInput returns the content of path, or stdin when path is "-" or
// empty.
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
