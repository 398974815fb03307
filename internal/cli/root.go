// Package cli defines the fieldops command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var jsonOutput bool

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "fieldops",
	Short: "Field-services companion for employees",
	Long: `fieldops is the terminal companion for field-services employees.

It surfaces your dashboard, schedule, and notifications, and submits the
request workflows (tools, clothing, expenses, spiffs, time off, suggestions,
referrals) to the company backend.

Environment Variables:
  FIELDOPS_API_BASE_URL  Backend base URL (required)
  FIELDOPS_WS_BASE_URL   Notifications socket base URL (optional override)`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
