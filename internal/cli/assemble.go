package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/docguard/internal/assemble"
)

var (
	assembleFormat   string
	assembleRoot     string
	assembleIdentity string
)

func init() {
	rootCmd.AddCommand(assembleCmd)
	assembleCmd.Flags().StringVarP(&assembleFormat, "format", "f", "text", "Output format (text|json)")
	assembleCmd.Flags().StringVar(&assembleRoot, "root", "", "Documents root (overrides config)")
	assembleCmd.Flags().StringVar(&assembleIdentity, "identity", "docguard-cli", "Requesting identity recorded in audit events")
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <path>",
	Short: "Assemble a document with its admitted context",
	Long: "Loads the primary document, sanitizes it, and resolves its declared\n" +
		"context documents. Context above the primary document's sensitivity\n" +
		"level is rejected and the rejection is audited.",
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

func runAssemble(cmd *cobra.Command, args []string) error {
	rt, err := setup(assembleRoot)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.gk.Process(context.Background(), args[0], assembleIdentity)
	if err != nil {
		var nf *assemble.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return err
	}

	if assembleFormat == "json" {
		out, err := json.MarshalIndent(res.Assembly, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	asm := res.Assembly
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s (%s)\n", bold("primary:"), asm.PrimaryDocument.Path, asm.PrimaryDocument.Sensitivity)
	for _, d := range asm.AdmittedContextDocuments {
		fmt.Printf("  + %s (%s)\n", d.Path, d.Sensitivity)
	}
	for _, r := range asm.RejectedContexts {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("  %s %s: %s\n", red("-"), r.Path, r.Reason)
	}
	for _, w := range asm.Warnings {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("  %s %s\n", yellow("!"), w)
	}
	return nil
}
