package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for tally
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Concurrent line and character counter",
		Long: `Tally walks a directory tree, counts the lines and non-whitespace
characters of every file whose extension was requested, and prints the totals.

Discovery, counting and aggregation run concurrently: one goroutine walks
the tree, a pool of workers counts files, and a single aggregator sums the
results. Runs are recorded so a later run over the same selection can be
compared against them.`,
		Version: Version,
		// main prints the error; silence cobra's copy and the usage text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewCountCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
