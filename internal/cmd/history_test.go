package cmd

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tally/internal/history"
	"github.com/harrison/tally/internal/models"
)

var runIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// recordRun performs one counted run and returns its ID from the JSON report.
func recordRun(t *testing.T, root string, exts ...string) string {
	t.Helper()
	args := append([]string{"count", "--format", "json", root}, exts...)
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)

	var summary models.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	require.NotEmpty(t, summary.RunID)
	return summary.RunID
}

func TestHistoryListEmpty(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)
}

func TestHistoryListAndShow(t *testing.T) {
	isolate(t)
	root := writeTree(t, scenario)
	first := recordRun(t, root, "txt")
	second := recordRun(t, root, "csv")

	stdout, _, err := execute(t, "history", "list")
	require.NoError(t, err)
	ids := runIDPattern.FindAllString(stdout, -1)
	assert.Equal(t, []string{second, first}, ids, "newest first")
	assert.Contains(t, stdout, root+" [txt]")

	stdout, _, err = execute(t, "history", "list", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{second}, runIDPattern.FindAllString(stdout, -1))

	stdout, _, err = execute(t, "history", "show", first, "--format", "json", "--files")
	require.NoError(t, err)
	var run history.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))
	assert.Equal(t, first, run.RunID)
	assert.Equal(t, models.Counts{Lines: 4, Characters: 11}, run.Totals)
	assert.Len(t, run.Files, 2)

	stdout, _, err = execute(t, "history", "show", first)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "# Tally run "+first))
}

func TestHistoryShowMissing(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "history", "show", "does-not-exist")
	assert.ErrorIs(t, err, history.ErrRunNotFound)
}

func TestHistoryDelete(t *testing.T) {
	isolate(t)
	root := writeTree(t, scenario)
	id := recordRun(t, root, "txt")

	stdout, _, err := execute(t, "history", "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "Deleted run "+id+"\n", stdout)

	_, _, err = execute(t, "history", "delete", id)
	assert.ErrorIs(t, err, history.ErrRunNotFound)
}

func TestHistoryDBFlag(t *testing.T) {
	isolate(t)
	root := writeTree(t, scenario)
	db := t.TempDir() + "/custom.db"

	_, _, err := execute(t, "count", "--history-db", db, root, "txt")
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "list", "--history-db", db)
	require.NoError(t, err)
	assert.Len(t, runIDPattern.FindAllString(stdout, -1), 1)

	stdout, _, err = execute(t, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout, "default database untouched")
}
