package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/tally/internal/fileutil"
	"github.com/harrison/tally/internal/pipeline"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <root> [extension]...",
		Short: "List the files a count would read",
		Long: `List walks <root> with the same rules as count and prints, sorted, every
file that would be counted. Nothing is read.

With --skipped, entries that were passed over are printed too, with the reason.`,
		Args: cobra.MinimumNArgs(1),
		RunE: listCommand,
	}

	addWalkFlags(cmd)
	cmd.Flags().Bool("skipped", false, "Also print skipped entries and why they were skipped")

	return cmd
}

func listCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root := args[0]
	if err := pipeline.CheckRoot(root); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not accessible, process terminated.\n", root)
		return err
	}

	result, err := fileutil.ScanDirectory(cmd.Context(), root, walkOptions(cfg, normalizeExtensions(args[1:])))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	w := cmd.OutOrStdout()
	for _, path := range result.Files {
		fmt.Fprintln(w, path)
	}

	showSkipped, _ := cmd.Flags().GetBool("skipped")
	if showSkipped {
		gray := color.New(color.FgHiBlack)
		if isTerminal(w) {
			gray.EnableColor()
		} else {
			gray.DisableColor()
		}
		for _, e := range result.Skipped {
			reason := "skipped"
			if e.Err != nil {
				reason = e.Err.Error()
			}
			gray.Fprintf(w, "%s (%s: %s)\n", e.Path, e.Kind, reason)
		}
	}

	for _, err := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}
