package models

import (
	"sort"
	"strings"
	"time"
)

// Counts is the line and non-whitespace character tally for one file or a whole run.
type Counts struct {
	Lines      int64 `json:"lines" yaml:"lines"`           // Number of '\n' bytes
	Characters int64 `json:"characters" yaml:"characters"` // Number of bytes that are not whitespace
}

// Add returns the sum of c and other.
func (c Counts) Add(other Counts) Counts {
	return Counts{
		Lines:      c.Lines + other.Lines,
		Characters: c.Characters + other.Characters,
	}
}

// IsZero reports whether both counts are zero.
func (c Counts) IsZero() bool {
	return c.Lines == 0 && c.Characters == 0
}

// FileResult is the partial result a worker produces for one file.
// It is immutable once created and consumed exactly once by the aggregator.
type FileResult struct {
	Path   string `json:"path" yaml:"path"`
	Counts Counts `json:"counts" yaml:"counts"`
}

// Stage identifies one of the pipeline stages for lifecycle events.
type Stage string

// Pipeline stages
const (
	StageDiscovery   Stage = "discovery"
	StageWorker      Stage = "worker"
	StageAggregation Stage = "aggregation"
)

// Summary describes a completed counting run.
//
// FilesSkipped counts only files whose extension was requested but which
// could not be read, at discovery or in a worker. Entries passed over by
// policy (no extension, unfollowed links, depth limit, repeated directories)
// are reported to the observer and not counted.
type Summary struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Root          string        `json:"root" yaml:"root"`
	Extensions    []string      `json:"extensions" yaml:"extensions"`
	Totals        Counts        `json:"totals" yaml:"totals"`
	FilesCounted  int           `json:"files_counted" yaml:"files_counted"`   // Files that produced a FileResult
	FilesSkipped  int           `json:"files_skipped" yaml:"files_skipped"`   // Requested files that were unreadable or failed to read
	WalkErrors    int           `json:"walk_errors" yaml:"walk_errors"`       // Subtrees skipped during traversal
	Workers       int           `json:"workers" yaml:"workers"`               // Goroutines that ran the worker loop
	QueueCapacity int           `json:"queue_capacity" yaml:"queue_capacity"` // Capacity of each hand-off queue
	QueueOrder    string        `json:"queue_order" yaml:"queue_order"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// ExtensionKey returns a canonical form of the extension list, used to find
// earlier runs over the same selection regardless of argument order.
func ExtensionKey(exts []string) string {
	seen := make(map[string]struct{}, len(exts))
	unique := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		unique = append(unique, ext)
	}
	sort.Strings(unique)
	return strings.Join(unique, ",")
}
