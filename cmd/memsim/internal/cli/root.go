// Package cli provides the command-line interface for memsim.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmyjacks/memsim/internal/config"
)

var envFile string

// rootCmd is the base command when memsim is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "memsim simulates a multi-level memory hierarchy from a trace file.",
	Long: `memsim replays a byte-granular memory access trace through a ` +
		`simulated chain of set-associative caches over a demand-paged ` +
		`backing store, and reports per-level access counts, hit/miss ` +
		`counts, miss rates, and cycle totals.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load(envFile)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "optional .env file loaded into the environment before the command runs (flag defaults are read from ./.env only)")
}

// Execute adds all child commands to the root command and runs it. A
// structural or configuration error recovered from a subcommand's run is
// reported and the process exits non-zero.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "memsim: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
