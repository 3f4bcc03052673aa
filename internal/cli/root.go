// Package cli implements the docguard command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docguard",
	Short: "Content security pipeline for document distribution",
	Long: "Guards documents moving from storage to publication: sanitizes\n" +
		"untrusted input, assembles context under the sensitivity hierarchy,\n" +
		"scans for embedded secrets, and gates distribution.",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.docguard/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
