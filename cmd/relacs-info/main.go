// Command relacs-info inspects relacs recordings: session metadata,
// repro runs and the stimuli presented during them.
package main

import (
	"os"

	"github.com/spf13/cobra"

	// Register the efish specializations.
	_ "github.com/bendalab/go-relacs/efish"
)

var rootCmd = &cobra.Command{
	Use:   "relacs-info",
	Short: "Inspect relacs recordings stored in NIX containers",
}

var mappingsFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&mappingsFile, "mappings", "", "YAML file with protocol-name aliases")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
