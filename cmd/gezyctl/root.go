package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gezyctl",
	Short: "Offline tooling for broadcasting-fee casework",
	Long: `gezyctl runs the extraction, interview, assessment and letter steps
locally, without the API server.

Case files are JSON documents holding the extracted notice, the interview
answers and the sender profile. See "gezyctl assess --help".`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(letterCmd)
	rootCmd.AddCommand(migrateCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
