package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ppiankov/docguard/internal/cache"
	"github.com/ppiankov/docguard/internal/pipeline"
)

// pruneInterval is how often the sweeper prunes the scan cache.
const pruneInterval = time.Hour

// Config holds full daemon configuration.
type Config struct {
	Dirs         DirConfig
	Identity     string
	Strict       bool
	PollMode     bool
	PollInterval time.Duration

	// Cache, when set, is pruned periodically while the daemon runs.
	Cache       *cache.Cache
	CacheMaxAge time.Duration
}

// Daemon watches the inbox directory and processes documents.
type Daemon struct {
	cfg       Config
	processor *Processor
}

// New creates a daemon with validated configuration.
func New(cfg Config, gk *pipeline.Gatekeeper) (*Daemon, error) {
	if cfg.Dirs.Inbox == "" || cfg.Dirs.Outbox == "" || cfg.Dirs.State == "" {
		return nil, fmt.Errorf("inbox, outbox, and state directories are required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = 30 * 24 * time.Hour
	}

	processor := NewProcessor(ProcessorConfig{
		Dirs:     cfg.Dirs,
		Identity: cfg.Identity,
		Strict:   cfg.Strict,
	}, gk)

	return &Daemon{cfg: cfg, processor: processor}, nil
}

// Run starts the daemon. Blocks until ctx is cancelled.
// On startup, processes any existing inbox files and requeues orphaned
// processing files.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// Acquire PID file lock to prevent duplicate instances.
	pidPath := filepath.Join(d.cfg.Dirs.State, "daemon.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	if err := d.recoverOrphans(); err != nil {
		return fmt.Errorf("recover orphans: %w", err)
	}

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "docguard: process %s: %v\n", filepath.Base(path), err)
		}
	}

	// Process any documents that arrived while the daemon was down.
	if err := ScanExisting(d.cfg.Dirs.Inbox, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if d.cfg.Cache != nil {
		go d.runCacheSweeper(ctx)
	}

	if d.cfg.PollMode {
		pw := NewPollWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewInboxWatcher(d.cfg.Dirs.Inbox, handler)
	return w.Run(ctx)
}

// runCacheSweeper periodically drops expired scan-cache entries.
func (d *Daemon) runCacheSweeper(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.cfg.Cache.Prune(d.cfg.CacheMaxAge)
			if err != nil {
				fmt.Fprintf(os.Stderr, "docguard: cache prune: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stderr, "docguard: pruned %d cached scan results\n", n)
			}
		}
	}
}

// recoverOrphans moves files left in state/processing/ back to the
// inbox. These are documents that were mid-flight when the daemon
// stopped; reprocessing them is safe because every stage is
// deterministic over the document bytes.
func (d *Daemon) recoverOrphans() error {
	procDir := d.cfg.Dirs.ProcessingDir()
	entries, err := os.ReadDir(procDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !isDocumentFile(e.Name()) {
			continue
		}
		src := filepath.Join(procDir, e.Name())
		dst := filepath.Join(d.cfg.Dirs.Inbox, e.Name())
		if err := moveFile(src, dst); err != nil {
			fmt.Fprintf(os.Stderr, "docguard: recover orphan %s: %v\n", e.Name(), err)
		}
	}
	return nil
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file — remove it.
		_ = os.Remove(path)
	}

	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
