package logger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harrison/tally/internal/counter"
	"github.com/harrison/tally/internal/fileutil"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/pipeline"
)

// Logger is what the count command logs through: the pipeline observer
// events plus free-form messages and the run bracket.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogRunStart(root string, extensions []string, workers int)
	LogSummary(summary models.Summary)

	FileQueued(path string)
	FileCounted(result models.FileResult)
	FileSkipped(path string, reason error)
	StageFinished(stage models.Stage)
}

// formatCounted renders the per-file line.
// Format: "<path>  Lines: N, non-whitespace characters: M"
func formatCounted(result models.FileResult) string {
	return fmt.Sprintf("%s  Lines: %d, non-whitespace characters: %d",
		result.Path, result.Counts.Lines, result.Counts.Characters)
}

// skipLevel picks the level and message for a skipped entry. Files the user
// could have expected to be counted are reported louder than the entries the
// walk passes over by policy.
func skipLevel(path string, reason error) (string, string) {
	switch {
	case errors.Is(reason, fileutil.ErrNoExtension):
		return "info", fmt.Sprintf("%s has no extension, skipped.", path)
	case errors.Is(reason, fileutil.ErrNotReadable),
		errors.Is(reason, counter.ErrFileOpenFailed),
		errors.Is(reason, counter.ErrFileUnreadable):
		return "warn", fmt.Sprintf("%s not accessible, skipped.", path)
	case errors.Is(reason, counter.ErrFileReadFailed):
		return "warn", fmt.Sprintf("%s could not be read, skipped: %v", path, reason)
	case errors.Is(reason, fileutil.ErrSymlinkSkipped),
		errors.Is(reason, fileutil.ErrDepthLimit),
		errors.Is(reason, fileutil.ErrNotRegular),
		errors.Is(reason, fileutil.ErrSymlinkCycle),
		errors.Is(reason, fileutil.ErrAlreadyVisited):
		return "debug", fmt.Sprintf("%s %v, skipped.", path, reason)
	default:
		return "warn", fmt.Sprintf("%s skipped: %v", path, reason)
	}
}

// formatRunStart renders the opening line of a run.
func formatRunStart(root string, extensions []string, workers int) string {
	exts := "(none)"
	if len(extensions) > 0 {
		exts = strings.Join(extensions, ", ")
	}
	return fmt.Sprintf("Counting %s in %s with %d workers", exts, root, workers)
}

var (
	_ Logger            = (*ConsoleLogger)(nil)
	_ Logger            = (*FileLogger)(nil)
	_ Logger            = (*MultiLogger)(nil)
	_ Logger            = (*NoOpLogger)(nil)
	_ pipeline.Observer = Logger(nil)
)
