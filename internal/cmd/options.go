package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/tally/internal/config"
	"github.com/harrison/tally/internal/fileutil"
	"github.com/harrison/tally/internal/pipeline"
	"github.com/harrison/tally/internal/queue"
)

// addWalkFlags registers the flags shared by every command that walks a tree.
func addWalkFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .tally/config.yaml)")
	cmd.Flags().Int("max-depth", 0, "Maximum directory depth below the root (default: config or 100)")
	cmd.Flags().Bool("no-follow-symlinks", false, "Leave symbolic links unfollowed instead of counting their targets")
	cmd.Flags().StringSlice("exclude", nil, "Directory names never descended (repeatable)")
}

// addPipelineFlags registers the flags that shape the counting pipeline.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "Number of worker goroutines (0 = one per CPU)")
	cmd.Flags().Int("queue-capacity", 0, "Capacity of the work and result queues (default: config or 100)")
	cmd.Flags().String("order", "", "Queue pop order: lifo or fifo (default: config or lifo)")
	cmd.Flags().Bool("no-recycle", false, "Do not reuse the discovery goroutine as a worker")
	cmd.Flags().String("log-level", "", "Log verbosity: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().Bool("quiet", false, "Only log warnings and errors")
}

// loadConfig loads the config file named by --config (or .tally/config.yaml),
// applies every flag the user set explicitly and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.MergeWithFlags(overridesFromFlags(cmd))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overridesFromFlags collects the flags that were set on the command line.
// Flags a command does not define are skipped.
func overridesFromFlags(cmd *cobra.Command) config.Overrides {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	intFlag := func(name string) *int {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetInt(name)
		return &v
	}
	stringFlag := func(name string) *string {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	boolFlag := func(name string, invert bool) *bool {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		v = v != invert
		return &v
	}

	var o config.Overrides
	o.Workers = intFlag("workers")
	o.QueueCapacity = intFlag("queue-capacity")
	o.MaxDepth = intFlag("max-depth")
	o.QueueOrder = stringFlag("order")
	o.FollowSymlinks = boolFlag("no-follow-symlinks", true)
	o.RecycleDiscoverer = boolFlag("no-recycle", true)
	o.HistoryEnabled = boolFlag("no-history", true)
	o.LogLevel = stringFlag("log-level")
	o.LogDir = stringFlag("log-dir")
	o.HistoryDBPath = stringFlag("history-db")
	o.ReportFormat = stringFlag("format")
	o.ReportOutput = stringFlag("output")
	if changed("exclude") {
		o.ExcludeDirs, _ = flags.GetStringSlice("exclude")
	}
	if changed("quiet") {
		if quiet, _ := flags.GetBool("quiet"); quiet {
			level := "warn"
			o.LogLevel = &level
		}
	}
	return o
}

// walkOptions maps the configuration onto the walker's options.
func walkOptions(cfg *config.Config, extensions []string) fileutil.WalkOptions {
	return fileutil.WalkOptions{
		Extensions:     extensions,
		MaxDepth:       cfg.MaxDepth,
		FollowSymlinks: cfg.FollowSymlinks,
		ExcludeDirs:    cfg.ExcludeDirs,
	}
}

// pipelineOptions maps the configuration onto a pipeline run.
func pipelineOptions(cfg *config.Config, root string, extensions []string) (pipeline.Options, error) {
	order, err := queue.ParseOrder(cfg.QueueOrder)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Root:              root,
		Extensions:        extensions,
		Workers:           cfg.EffectiveWorkers(),
		QueueCapacity:     cfg.QueueCapacity,
		QueueOrder:        order,
		MaxDepth:          cfg.MaxDepth,
		SkipSymlinks:      !cfg.FollowSymlinks,
		ExcludeDirs:       cfg.ExcludeDirs,
		RecycleDiscoverer: cfg.RecycleDiscoverer,
	}, nil
}

// normalizeExtensions trims a leading "." from each requested extension and
// drops empty ones, so "txt" and ".txt" select the same files.
func normalizeExtensions(args []string) []string {
	exts := make([]string, 0, len(args))
	for _, arg := range args {
		ext := strings.TrimPrefix(strings.TrimSpace(arg), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// isTerminal reports whether w is a terminal, for color decisions.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
