package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/docguard/internal/audit"
)

var (
	auditPath   string
	auditFormat string
	auditTail   int
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditShowCmd)
	auditCmd.PersistentFlags().StringVar(&auditPath, "log", "", "Audit log path (overrides config)")
	auditShowCmd.Flags().IntVarP(&auditTail, "tail", "n", 20, "Number of most recent entries to show")
	auditShowCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained security event log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log hash chain",
	Long: "Walks the JSONL log and checks every entry's prev_hash against the\n" +
		"previous line. Exit code 1 when the chain is broken.",
	RunE: runAuditVerify,
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent audit entries",
	RunE:  runAuditShow,
}

func resolveAuditPath() (string, error) {
	if auditPath != "" {
		return auditPath, nil
	}
	cfg, err := setupConfigOnly()
	if err != nil {
		return "", err
	}
	if cfg.Audit.Path == "" {
		return "", fmt.Errorf("no audit log configured: set audit.path or pass --log")
	}
	return cfg.Audit.Path, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}

	res := audit.Verify(path)
	if res.Valid {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s chain intact (%d entries)\n", green("ok:"), res.Lines)
		return nil
	}

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	if res.ErrorLine > 0 {
		fmt.Printf("%s chain broken at line %d: %s\n", red("invalid:"), res.ErrorLine, res.Error)
	} else {
		fmt.Printf("%s %s\n", red("invalid:"), res.Error)
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	os.Exit(1)
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}

	entries, err := audit.ReadEntries(path, auditTail)
	if err != nil {
		return err
	}

	if auditFormat == "json" {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Print(audit.FormatText(entries))
	return nil
}
