package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scanFormat   string
	scanRedacted bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "Output format (text|json)")
	scanCmd.Flags().BoolVar(&scanRedacted, "redacted", false, "Print the redacted text instead of the findings")
}

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan text for embedded secrets",
	Long: "Runs the secret pattern registry over the input and reports\n" +
		"findings. Exit code 1 when secrets are detected.\n" +
		"Reads the file argument, or stdin when omitted or '-'.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
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

	res := rt.gk.Scan(text)

	switch {
	case scanFormat == "json":
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case scanRedacted:
		fmt.Println(res.RedactedText)
	default:
		if !res.HasSecrets {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s no secrets detected\n", green("ok:"))
			return nil
		}
		red := color.New(color.FgRed, color.Bold).SprintFunc()
		fmt.Printf("%s %d secret(s) detected (%d critical)\n", red("found:"), res.TotalCount, res.CriticalCount)
		for _, s := range res.Secrets {
			fmt.Printf("  %-32s offset %-6d %s\n", s.Type, s.Offset, s.Severity)
		}
	}

	if res.HasSecrets {
		// Non-zero exit so scripts can gate on detection. os.Exit
		// skips deferred calls, so close the runtime here.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		rt.Close()
		os.Exit(1)
	}
	return nil
}
