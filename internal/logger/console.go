// Package logger provides logging implementations for tally runs.
//
// The logger package reports counting progress per file and per run.
// Implementations are thread-safe, receive pipeline events as observers, and
// write to the console, a run log file, or both.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/tally/internal/models"
)

// ConsoleLogger logs counting progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns false when NO_COLOR is set.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return enabled(cl.logLevel, messageLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// FileQueued logs a path handed to the workers at TRACE level.
func (cl *ConsoleLogger) FileQueued(path string) {
	cl.LogTrace(fmt.Sprintf("queued %s", path))
}

// FileCounted logs the per-file counts at INFO level.
// Format: "[HH:MM:SS] [INFO] <path>  Lines: N, non-whitespace characters: M"
func (cl *ConsoleLogger) FileCounted(result models.FileResult) {
	cl.LogInfo(formatCounted(result))
}

// FileSkipped logs an entry that was not counted. Unreadable files are
// logged at WARN, entries without an extension at INFO, and entries skipped
// by walk policy (symlinks, depth limit, special files) at DEBUG.
func (cl *ConsoleLogger) FileSkipped(path string, reason error) {
	level, message := skipLevel(path, reason)
	cl.logWithLevel(strings.ToUpper(level), message)
}

// StageFinished logs a stage goroutine exit at DEBUG level.
func (cl *ConsoleLogger) StageFinished(stage models.Stage) {
	cl.LogDebug(fmt.Sprintf("%s stage finished", stage))
}

// LogRunStart logs the start of a run at INFO level.
// Format: "[HH:MM:SS] [INFO] Counting <exts> in <root> with <n> workers"
func (cl *ConsoleLogger) LogRunStart(root string, extensions []string, workers int) {
	cl.LogInfo(formatRunStart(root, extensions, workers))
}

// LogSummary logs the run totals at INFO level.
// Format: "[HH:MM:SS] === Run Summary ===" followed by one line per metric.
func (cl *ConsoleLogger) LogSummary(summary models.Summary) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var sb strings.Builder

	metrics := []struct {
		label string
		value interface{}
		kind  metricKind
	}{
		{"Files counted", summary.FilesCounted, metricNeutral},
		{"Files skipped", summary.FilesSkipped, metricFailure},
		{"Lines", summary.Totals.Lines, metricSuccess},
		{"Characters", summary.Totals.Characters, metricSuccess},
		{"Duration", formatDuration(summary.Duration), metricNeutral},
	}

	if cl.colorOutput {
		scheme := newColorScheme()
		fmt.Fprintf(&sb, "[%s] %s\n", ts, color.New(color.Bold).Sprint("=== Run Summary ==="))
		for _, m := range metrics {
			fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric(m.label, m.value, m.kind, scheme))
		}
	} else {
		fmt.Fprintf(&sb, "[%s] === Run Summary ===\n", ts)
		for _, m := range metrics {
			fmt.Fprintf(&sb, "[%s] %s: %v\n", ts, m.label, m.value)
		}
	}

	cl.writer.Write([]byte(sb.String()))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration formats a duration for display.
// Examples: "250ms", "1.5s", "2m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

// NoOpLogger discards every message. Useful for tests and --quiet runs.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                   {}
func (n *NoOpLogger) LogDebug(string)                   {}
func (n *NoOpLogger) LogInfo(string)                    {}
func (n *NoOpLogger) LogWarn(string)                    {}
func (n *NoOpLogger) LogError(string)                   {}
func (n *NoOpLogger) LogRunStart(string, []string, int) {}
func (n *NoOpLogger) LogSummary(models.Summary)         {}
func (n *NoOpLogger) FileQueued(string)                 {}
func (n *NoOpLogger) FileCounted(models.FileResult)     {}
func (n *NoOpLogger) FileSkipped(string, error)         {}
func (n *NoOpLogger) StageFinished(models.Stage)        {}
