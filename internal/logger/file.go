package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/tally/internal/models"
)

// FileLogger logs run events to files in a log directory.
// It creates a timestamped per-run log file and maintains a latest.log
// symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to .tally/logs/.
// Uses default log level "info".
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".tally", "logs"), "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== Tally Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return enabled(fl.logLevel, messageLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	ts := time.Now().Format("15:04:05")
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", ts, level, message))
}

func (fl *FileLogger) FileQueued(path string) {
	fl.LogTrace(fmt.Sprintf("queued %s", path))
}

func (fl *FileLogger) FileCounted(result models.FileResult) {
	fl.LogInfo(formatCounted(result))
}

func (fl *FileLogger) FileSkipped(path string, reason error) {
	level, message := skipLevel(path, reason)
	fl.logWithLevel(strings.ToUpper(level), message)
}

func (fl *FileLogger) StageFinished(stage models.Stage) {
	fl.LogDebug(fmt.Sprintf("%s stage finished", stage))
}

// LogRunStart records the run parameters at the top of the log.
func (fl *FileLogger) LogRunStart(root string, extensions []string, workers int) {
	fl.LogInfo(formatRunStart(root, extensions, workers))
}

// LogSummary writes the run summary block. It is written regardless of the
// configured level so every run log ends with its totals.
func (fl *FileLogger) LogSummary(summary models.Summary) {
	var sb strings.Builder
	sb.WriteString("\n=== Run Summary ===\n")
	fmt.Fprintf(&sb, "Run ID: %s\n", summary.RunID)
	fmt.Fprintf(&sb, "Root: %s\n", summary.Root)
	fmt.Fprintf(&sb, "Extensions: %s\n", strings.Join(summary.Extensions, ", "))
	fmt.Fprintf(&sb, "Workers: %d (queue %s, capacity %d)\n", summary.Workers, summary.QueueOrder, summary.QueueCapacity)
	fmt.Fprintf(&sb, "Files counted: %d\n", summary.FilesCounted)
	fmt.Fprintf(&sb, "Files skipped: %d\n", summary.FilesSkipped)
	if summary.WalkErrors > 0 {
		fmt.Fprintf(&sb, "Walk errors: %d\n", summary.WalkErrors)
	}
	fmt.Fprintf(&sb, "Lines: %d\n", summary.Totals.Lines)
	fmt.Fprintf(&sb, "Characters: %d\n", summary.Totals.Characters)
	fmt.Fprintf(&sb, "Duration: %s\n", formatDuration(summary.Duration))
	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
