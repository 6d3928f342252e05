package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.QueueCapacity != 100 {
		t.Errorf("QueueCapacity = %d, want 100", cfg.QueueCapacity)
	}
	if cfg.QueueOrder != "lifo" {
		t.Errorf("QueueOrder = %q, want %q", cfg.QueueOrder, "lifo")
	}
	if cfg.MaxDepth != 100 {
		t.Errorf("MaxDepth = %d, want 100", cfg.MaxDepth)
	}
	if !cfg.FollowSymlinks {
		t.Error("FollowSymlinks = false, want true")
	}
	if !cfg.RecycleDiscoverer {
		t.Error("RecycleDiscoverer = false, want true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.Report.Format != "text" {
		t.Errorf("Report.Format = %q, want %q", cfg.Report.Format, "text")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `workers: 4
queue_capacity: 8
queue_order: fifo
max_depth: 3
follow_symlinks: false
exclude_dirs: [".git", "node_modules"]
log_level: debug
log_dir: /tmp/logs
history:
  db_path: /tmp/history.db
report:
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 8, cfg.QueueCapacity)
	assert.Equal(t, "fifo", cfg.QueueOrder)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.False(t, cfg.FollowSymlinks, "explicit false overrides default")
	assert.True(t, cfg.RecycleDiscoverer, "absent key keeps default")
	assert.Equal(t, []string{".git", "node_modules"}, cfg.ExcludeDirs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/logs", cfg.LogDir)
	assert.True(t, cfg.History.Enabled, "absent key keeps default")
	assert.Equal(t, "/tmp/history.db", cfg.History.DBPath)
	assert.Equal(t, "json", cfg.Report.Format)
}

// TestLoadConfigExplicitFalse tests that explicit false and zero values override defaults
func TestLoadConfigExplicitFalse(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `recycle_discoverer: false
workers: 0
history:
  enabled: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.False(t, cfg.RecycleDiscoverer)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 0, cfg.Workers)
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestLoadConfigMalformed tests that malformed YAML returns an error
func TestLoadConfigMalformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("workers: [unclosed\n"), 0644))

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".tally"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tally", "config.yaml"), []byte("workers: 2\n"), 0644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)

	cfg, err = LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestMergeWithFlags(t *testing.T) {
	workers := 6
	order := "fifo"
	noHistory := false
	format := "yaml"

	cfg := DefaultConfig()
	cfg.ExcludeDirs = []string{".git"}
	cfg.MergeWithFlags(Overrides{
		Workers:        &workers,
		QueueOrder:     &order,
		HistoryEnabled: &noHistory,
		ReportFormat:   &format,
		ExcludeDirs:    []string{"vendor"},
	})

	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "fifo", cfg.QueueOrder)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "yaml", cfg.Report.Format)
	assert.Equal(t, []string{".git", "vendor"}, cfg.ExcludeDirs)
	assert.Equal(t, 100, cfg.QueueCapacity, "nil override leaves value")
	assert.Equal(t, "info", cfg.LogLevel, "nil override leaves value")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: "workers must be >= 0"},
		{name: "zero capacity", mutate: func(c *Config) { c.QueueCapacity = 0 }, wantErr: "queue_capacity must be >= 1"},
		{name: "zero depth", mutate: func(c *Config) { c.MaxDepth = 0 }, wantErr: "max_depth must be >= 1"},
		{name: "bad order", mutate: func(c *Config) { c.QueueOrder = "random" }, wantErr: "invalid queue_order"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log_level"},
		{name: "bad format", mutate: func(c *Config) { c.Report.Format = "xml" }, wantErr: "invalid report.format"},
		{name: "history disabled without path", mutate: func(c *Config) { c.History.Enabled = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEffectiveWorkers(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.EffectiveWorkers(), 1)

	cfg.Workers = 3
	assert.Equal(t, 3, cfg.EffectiveWorkers())
}

func TestHistoryDBPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TALLY_HOME", home)

	cfg := DefaultConfig()
	path, err := cfg.HistoryDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "history.db"), path)

	cfg.History.DBPath = "/elsewhere/runs.db"
	path, err = cfg.HistoryDBPath()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/runs.db", path)
}

func TestGetTallyHomeCreatesDirectory(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested", "home")
	t.Setenv("TALLY_HOME", home)

	got, err := GetTallyHome()
	require.NoError(t, err)
	assert.Equal(t, home, got)
	assert.DirExists(t, home)
}
