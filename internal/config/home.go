package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetTallyHome returns the tally home directory
// Priority order:
//  1. TALLY_HOME environment variable (if set)
//  2. .tally in the current working directory
//
// The directory is created if it doesn't exist
func GetTallyHome() (string, error) {
	home := os.Getenv("TALLY_HOME")
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".tally")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create tally home directory: %w", err)
	}
	return home, nil
}

// GetHistoryDBPath returns the default history database location
// Always returns: $TALLY_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetTallyHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
