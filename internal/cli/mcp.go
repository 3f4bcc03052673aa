package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	docmcp "github.com/ppiankov/docguard/internal/mcp"
)

var mcpIdentity string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpIdentity, "identity", "mcp-client", "Requesting identity recorded in audit events")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs docguard as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the pipeline as tools: sanitize, scan, assemble, validate.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := docmcp.New(docmcp.Config{
		ConfigPath: configPath,
		Identity:   mcpIdentity,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "docguard MCP server running on stdio")
	return srv.Run(ctx)
}
