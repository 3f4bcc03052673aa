package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/docguard/internal/gate"
	"github.com/ppiankov/docguard/internal/model"
)

var (
	validateFormat   string
	validateStrict   bool
	validateIdentity string
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text|json)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Escalate warnings into a manual review block")
	validateCmd.Flags().StringVar(&validateIdentity, "identity", "docguard-cli", "Requesting identity recorded in audit events")
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate content for publication",
	Long: "Runs the pre-distribution gate: rescans for secrets and applies the\n" +
		"keyword policy. Exit code 1 when distribution is blocked.\n" +
		"Reads the file argument, or stdin when omitted or '-'.",
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(path)
	if err != nil {
		return err
	}

	rt, err := setup("")
	if err != nil {
		return err
	}
	defer rt.Close()

	meta, body, _, metaErr := model.ParseFrontmatter(text)
	if metaErr != nil {
		return fmt.Errorf("invalid metadata: %w", metaErr)
	}

	res, gateErr := rt.gk.Distribute(body, meta, gate.Options{
		StrictMode:         validateStrict || rt.cfg.Gate.StrictMode,
		RequestingIdentity: validateIdentity,
		Document:           path,
	})

	if validateFormat == "json" {
		out, err := json.MarshalIndent(res.Validation, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printValidation(res.Validation)
	}

	var blocked *gate.BlockedError
	if errors.As(gateErr, &blocked) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		// os.Exit skips deferred calls, so flush alerts and close
		// handles here.
		rt.Close()
		os.Exit(1)
	}
	return gateErr
}

func printValidation(v gate.Result) {
	if v.Valid {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s content may be distributed\n", green("valid:"))
	} else {
		red := color.New(color.FgRed, color.Bold).SprintFunc()
		fmt.Printf("%s distribution blocked\n", red("blocked:"))
		for _, r := range v.BlockingReasons {
			fmt.Printf("  - %s\n", r)
		}
	}
	for _, w := range v.Warnings {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("  %s %s\n", yellow("warning:"), w)
	}
}
