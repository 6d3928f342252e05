package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/tally/internal/config"
	"github.com/harrison/tally/internal/history"
	"github.com/harrison/tally/internal/logger"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/pipeline"
	"github.com/harrison/tally/internal/report"
)

// NewCountCommand creates the count command
func NewCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <root> [extension]...",
		Short: "Count lines and non-whitespace characters under a directory",
		Long: `Count walks <root> and, for every regular readable file whose extension
is one of the given extensions, counts newline characters and bytes that are
not whitespace. Extensions are matched case-sensitively against the text after
the last "." of the file name; a leading "." on an argument is ignored.

Per-file counts and skipped files are logged to stderr. The totals are
printed to stdout (or --output) in the selected format.

Configuration is loaded from .tally/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  tally count ./src go md
  tally count --workers 8 --order fifo ./data csv
  tally count --format json --output report.json . txt
  tally count --quiet --no-history /var/log log`,
		Args: cobra.MinimumNArgs(1),
		RunE: countCommand,
	}

	addWalkFlags(cmd)
	addPipelineFlags(cmd)
	cmd.Flags().String("format", "", "Report format: text, json, yaml, markdown, html")
	cmd.Flags().String("output", "", "Write the report to this file instead of stdout")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("history-db", "", "Path to the history database (default: .tally/history.db)")

	return cmd
}

// resultCollector keeps every per-file result for the history record while
// passing events through to the logger.
type resultCollector struct {
	logger.Logger

	mu    sync.Mutex
	files []models.FileResult
}

func (c *resultCollector) FileCounted(result models.FileResult) {
	c.Logger.FileCounted(result)

	c.mu.Lock()
	c.files = append(c.files, result)
	c.mu.Unlock()
}

// countCommand implements the count command logic
func countCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}

	root := args[0]
	extensions := normalizeExtensions(args[1:])

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	var log logger.Logger = console
	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		log = logger.NewMultiLogger(console, fileLog)
	}

	if err := pipeline.CheckRoot(root); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not accessible, process terminated.\n", root)
		return err
	}

	opts, err := pipelineOptions(cfg, root, extensions)
	if err != nil {
		return err
	}
	collector := &resultCollector{Logger: log}
	opts.Observer = collector

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(opts)
	log.LogRunStart(root, extensions, p.Workers())

	summary, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.LogWarn(fmt.Sprintf("Run interrupted after %d files", summary.FilesCounted))
			return fmt.Errorf("count interrupted: %w", err)
		}
		if errors.Is(err, pipeline.ErrRootInaccessible) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s not accessible, process terminated.\n", root)
		}
		return err
	}
	log.LogSummary(summary)

	if cfg.History.Enabled {
		recordHistory(ctx, cfg, log, summary, collector.files)
	}

	out := report.Report{Summary: summary}
	if cfg.Report.Output != "" {
		if err := report.WriteFile(ctx, cfg.Report.Output, out, format); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.LogInfo(fmt.Sprintf("Report written to %s", cfg.Report.Output))
		return nil
	}
	out.Color = format == report.FormatText && isTerminal(cmd.OutOrStdout())
	return report.Render(cmd.OutOrStdout(), out, format)
}

// recordHistory stores the run and compares it with the previous run over
// the same root and extensions. History problems are logged, never fatal.
func recordHistory(ctx context.Context, cfg *config.Config, log logger.Logger, summary models.Summary, files []models.FileResult) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		log.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return
	}
	store, err := history.NewStore(ctx, dbPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("History disabled: %v", err))
		return
	}
	defer store.Close()

	prev, err := store.Previous(ctx, summary.Root, summary.Extensions, summary.RunID)
	if err != nil {
		log.LogWarn(fmt.Sprintf("Could not read history: %v", err))
	}
	if err := store.Record(ctx, summary, files); err != nil {
		log.LogWarn(fmt.Sprintf("Could not record run: %v", err))
		return
	}
	log.LogDebug(fmt.Sprintf("Recorded run %s in %s", summary.RunID, dbPath))

	switch {
	case prev == nil:
	case prev.Totals == summary.Totals:
		log.LogInfo(fmt.Sprintf("Totals match previous run %s", prev.RunID))
	default:
		log.LogWarn(fmt.Sprintf("Totals differ from previous run %s: was %d lines and %d characters",
			prev.RunID, prev.Totals.Lines, prev.Totals.Characters))
	}
}
