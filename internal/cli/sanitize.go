package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sanitizeFormat string

func init() {
	rootCmd.AddCommand(sanitizeCmd)
	sanitizeCmd.Flags().StringVarP(&sanitizeFormat, "format", "f", "text", "Output format (text|json)")
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file]",
	Short: "Sanitize untrusted document text",
	Long: "Strips hidden characters and neutralizes embedded instruction\n" +
		"patterns. Reads the file argument, or stdin when omitted or '-'.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSanitize,
}

func runSanitize(cmd *cobra.Command, args []string) error {
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

	res := rt.gk.SanitizeText(text)

	if sanitizeFormat == "json" {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(res.SanitizedText)
	if res.Flagged {
		yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %s\n", yellow("flagged:"), res.Reason)
		for _, d := range res.RemovedDescriptions {
			fmt.Fprintf(os.Stderr, "  - %s\n", d)
		}
	}
	return nil
}
