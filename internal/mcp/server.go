// Package mcp exposes the docguard pipeline as MCP tools so agent
// runtimes can sanitize, scan, assemble, and gate documents without
// shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

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

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
	Identity   string
}

// Server wraps the MCP SDK server with the docguard pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	gk        *pipeline.Gatekeeper
	cfg       *config.Config
	identity  string
	strict    bool
	auditLog  *audit.Log
	scanCache *cache.Cache
	alerts    *alert.Dispatcher
}

// New creates an MCP server with loaded configuration and tools.
func New(cfg Config) (*Server, error) {
	appCfg, hash, err := config.LoadConfigWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	scannerCfg, err := appCfg.ScannerSettings()
	if err != nil {
		return nil, err
	}

	var auditLog *audit.Log
	if appCfg.Audit.Path != "" {
		auditLog, err = audit.Open(appCfg.Audit.Path, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	scanCache, err := cache.Open(appCfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	var sinks model.MultiSink
	if auditLog != nil {
		sinks = append(sinks, auditLog)
	}
	dispatcher := alert.NewDispatcher(appCfg.Webhooks)
	if dispatcher != nil {
		sinks = append(sinks, dispatcher)
	}

	var res assemble.Resolver
	if appCfg.DocumentsRoot != "" {
		fs, err := resolver.NewFS(appCfg.DocumentsRoot)
		if err != nil {
			return nil, err
		}
		res = fs
	}

	gk, err := pipeline.New(res, pipeline.Options{
		Sanitizer: sanitize.Config{
			ImperativeDensity: appCfg.Sanitizer.ImperativeDensity,
			MaxRemovalRatio:   appCfg.Sanitizer.MaxRemovalRatio,
		},
		Scanner: scannerCfg,
		Gate: gate.Config{
			ExtraBlockingPatterns: appCfg.Gate.ExtraBlockingPatterns,
			ExtraWarningKeywords:  appCfg.Gate.ExtraWarningKeywords,
		},
		Assembler: assemble.Options{
			MaxContextDocuments:     appCfg.Assembler.MaxContextDocuments,
			AllowCircularReferences: appCfg.Assembler.AllowCircularReferences,
			FailOnValidationError:   appCfg.Assembler.FailOnValidationError,
			StrictMetadata:          appCfg.Assembler.StrictMetadata,
		},
		Fingerprint: hash,
		Cache:       scanCache,
		Sink:        sinks,
	})
	if err != nil {
		return nil, err
	}

	identity := cfg.Identity
	if identity == "" {
		identity = "mcp-client"
	}

	s := &Server{
		gk:        gk,
		cfg:       appCfg,
		identity:  identity,
		strict:    appCfg.Gate.StrictMode,
		auditLog:  auditLog,
		scanCache: scanCache,
		alerts:    dispatcher,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "docguard",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close flushes pending alert deliveries and releases the audit log
// and cache handles.
func (s *Server) Close() error {
	if s.alerts != nil {
		s.alerts.Flush(10 * time.Second)
	}
	if s.scanCache != nil {
		_ = s.scanCache.Close()
	}
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// registerTools adds all docguard tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "docguard_sanitize",
		Description: "Sanitize untrusted document text: strip hidden characters and neutralize embedded instruction patterns. Returns the cleaned text and what was removed.",
	}, s.handleSanitize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "docguard_scan",
		Description: "Scan text for embedded secrets (credentials, tokens, connection strings). Returns detections and a redacted copy.",
	}, s.handleScan)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "docguard_assemble",
		Description: "Load a document and its declared context documents, admitting only context at or below the primary document's sensitivity level.",
	}, s.handleAssemble)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "docguard_validate",
		Description: "Validate content for publication. Blocked content returns the blocking reasons; warnings are advisory unless strict mode is on.",
	}, s.handleValidate)
}
