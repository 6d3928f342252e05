package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/tally/internal/history"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/report"
)

// NewHistoryCommand creates the 'tally history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Commands for viewing and managing the run history.

Every count run is recorded with its totals and per-file results unless
history is disabled. Runs over the same root and extensions are compared
automatically.`,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .tally/config.yaml)")
	cmd.PersistentFlags().String("history-db", "", "Path to the history database (default: .tally/history.db)")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryDeleteCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printRunList(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := report.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			withFiles, _ := cmd.Flags().GetBool("files")

			return withStore(cmd, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				r := report.Report{Summary: run.Summary}
				if withFiles {
					r.Files = run.Files
				}
				return report.Render(cmd.OutOrStdout(), r, format)
			})
		},
	}
	cmd.Flags().String("format", "markdown", "Output format: text, json, yaml, markdown, html")
	cmd.Flags().Bool("files", false, "Include per-file results")
	return cmd
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *history.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
				return nil
			})
		},
	}
}

// withStore opens the configured history database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*history.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}
	store, err := history.NewStore(cmd.Context(), dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func printRunList(w io.Writer, runs []models.Summary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	cyan := color.New(color.FgCyan)
	if !isTerminal(w) {
		cyan.DisableColor()
	}

	cyan.Fprintf(w, "%-36s  %-19s  %10s  %12s  %6s  %s\n", "RUN ID", "STARTED", "LINES", "CHARACTERS", "FILES", "SELECTION")
	for _, r := range runs {
		selection := r.Root
		if len(r.Extensions) > 0 {
			selection += " [" + strings.Join(r.Extensions, ",") + "]"
		}
		fmt.Fprintf(w, "%-36s  %-19s  %10d  %12d  %6d  %s\n",
			r.RunID, r.StartedAt.Local().Format(time.DateTime), r.Totals.Lines, r.Totals.Characters, r.FilesCounted, selection)
	}
}
