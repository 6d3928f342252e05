package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Valid values for the enumerated settings.
var (
	validLevels  = []string{"trace", "debug", "info", "warn", "error"}
	validOrders  = []string{"lifo", "fifo"}
	validFormats = []string{"text", "json", "yaml", "markdown", "html"}
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every count run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = $TALLY_HOME/history.db)
	DBPath string `yaml:"db_path"`
}

// ReportConfig represents summary report configuration
type ReportConfig struct {
	// Format is the summary format (text, json, yaml, markdown, html)
	Format string `yaml:"format"`

	// Output is a file the summary is written to instead of stdout
	Output string `yaml:"output"`
}

// Config represents tally configuration options
type Config struct {
	// Workers is the number of dedicated worker goroutines (0 = one per CPU)
	Workers int `yaml:"workers"`

	// QueueCapacity bounds the work and result queues
	QueueCapacity int `yaml:"queue_capacity"`

	// QueueOrder is the pop order of both queues (lifo, fifo)
	QueueOrder string `yaml:"queue_order"`

	// MaxDepth limits recursion below the root directory
	MaxDepth int `yaml:"max_depth"`

	// FollowSymlinks descends into symlinked directories and counts symlinked files
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// RecycleDiscoverer turns the discovery goroutine into a worker once the walk ends
	RecycleDiscoverer bool `yaml:"recycle_discoverer"`

	// ExcludeDirs lists directory names that are never descended
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written (empty = no file log)
	LogDir string `yaml:"log_dir"`

	History HistoryConfig `yaml:"history"`
	Report  ReportConfig  `yaml:"report"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Workers:           0, // One per CPU
		QueueCapacity:     100,
		QueueOrder:        "lifo",
		MaxDepth:          100,
		FollowSymlinks:    true,
		RecycleDiscoverer: true,
		LogLevel:          "info",
		LogDir:            "",
		History: HistoryConfig{
			Enabled: true,
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A second decode into a map tells an explicit false or 0 apart from an
	// absent key.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	has := func(m map[string]interface{}, key string) bool {
		_, ok := m[key]
		return ok
	}

	if has(rawMap, "workers") {
		cfg.Workers = fileCfg.Workers
	}
	if has(rawMap, "queue_capacity") {
		cfg.QueueCapacity = fileCfg.QueueCapacity
	}
	if fileCfg.QueueOrder != "" {
		cfg.QueueOrder = fileCfg.QueueOrder
	}
	if has(rawMap, "max_depth") {
		cfg.MaxDepth = fileCfg.MaxDepth
	}
	if has(rawMap, "follow_symlinks") {
		cfg.FollowSymlinks = fileCfg.FollowSymlinks
	}
	if has(rawMap, "recycle_discoverer") {
		cfg.RecycleDiscoverer = fileCfg.RecycleDiscoverer
	}
	if fileCfg.ExcludeDirs != nil {
		cfg.ExcludeDirs = fileCfg.ExcludeDirs
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}

	if section, ok := rawMap["history"].(map[string]interface{}); ok {
		if has(section, "enabled") {
			cfg.History.Enabled = fileCfg.History.Enabled
		}
		if has(section, "db_path") {
			// Explicitly set db_path, even if empty string
			cfg.History.DBPath = fileCfg.History.DBPath
		}
	}
	if fileCfg.Report.Format != "" {
		cfg.Report.Format = fileCfg.Report.Format
	}
	if fileCfg.Report.Output != "" {
		cfg.Report.Output = fileCfg.Report.Output
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .tally/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".tally", "config.yaml"))
}

// Overrides carries CLI flag values. Nil fields were not set on the command
// line and leave the configuration untouched.
type Overrides struct {
	Workers           *int
	QueueCapacity     *int
	QueueOrder        *string
	MaxDepth          *int
	FollowSymlinks    *bool
	RecycleDiscoverer *bool
	ExcludeDirs       []string
	LogLevel          *string
	LogDir            *string
	HistoryEnabled    *bool
	HistoryDBPath     *string
	ReportFormat      *string
	ReportOutput      *string
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(o Overrides) {
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	if o.QueueCapacity != nil {
		c.QueueCapacity = *o.QueueCapacity
	}
	if o.QueueOrder != nil {
		c.QueueOrder = *o.QueueOrder
	}
	if o.MaxDepth != nil {
		c.MaxDepth = *o.MaxDepth
	}
	if o.FollowSymlinks != nil {
		c.FollowSymlinks = *o.FollowSymlinks
	}
	if o.RecycleDiscoverer != nil {
		c.RecycleDiscoverer = *o.RecycleDiscoverer
	}
	if o.ExcludeDirs != nil {
		c.ExcludeDirs = append(c.ExcludeDirs, o.ExcludeDirs...)
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.HistoryEnabled != nil {
		c.History.Enabled = *o.HistoryEnabled
	}
	if o.HistoryDBPath != nil {
		c.History.DBPath = *o.HistoryDBPath
	}
	if o.ReportFormat != nil {
		c.Report.Format = *o.ReportFormat
	}
	if o.ReportOutput != nil {
		c.Report.Output = *o.ReportOutput
	}
}

// EffectiveWorkers resolves Workers = 0 to the logical CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU(), 1)
}

// HistoryDBPath returns the configured database path, falling back to the
// database under the tally home directory.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be >= 1, got %d", c.QueueCapacity)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1, got %d", c.MaxDepth)
	}
	if !oneOf(c.QueueOrder, validOrders) {
		return fmt.Errorf("invalid queue_order %q, must be one of: lifo, fifo", c.QueueOrder)
	}
	if !oneOf(c.LogLevel, validLevels) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if !oneOf(c.Report.Format, validFormats) {
		return fmt.Errorf("invalid report.format %q, must be one of: text, json, yaml, markdown, html", c.Report.Format)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
