package fileutil

import (
	"context"
	"fmt"
	"sort"
)

// ScanResult is the collected outcome of a full walk.
type ScanResult struct {
	Files   []string // accepted paths, sorted
	Skipped []Entry  // entries with a non-nil Err, in walk order
	Errors  []error  // walk errors for subtrees that could not be read
}

// ScanDirectory walks root and collects the accepted files instead of streaming them.
// Non-fatal problems are collected in the result; only an unreadable root is an error.
func ScanDirectory(ctx context.Context, root string, opts WalkOptions) (*ScanResult, error) {
	result := &ScanResult{
		Files:   []string{},
		Skipped: []Entry{},
		Errors:  []error{},
	}

	err := Walk(ctx, root, opts, func(e Entry) error {
		switch e.Kind {
		case EntryAccepted:
			result.Files = append(result.Files, e.Path)
		case EntryUnmatched:
		case EntryWalkError:
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", e.Path, e.Err))
			result.Skipped = append(result.Skipped, e)
		default:
			result.Skipped = append(result.Skipped, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result.Files)
	return result, nil
}
