package counter

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tally/internal/models"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		data string
		want models.Counts
	}{
		{name: "empty", data: "", want: models.Counts{}},
		{name: "no trailing newline", data: "abc", want: models.Counts{Lines: 0, Characters: 3}},
		{name: "three lines", data: "ab cd\nef\n\ngh ij\n", want: models.Counts{Lines: 4, Characters: 10}},
		{name: "only whitespace", data: " \t\n\v\f\r", want: models.Counts{Lines: 1, Characters: 0}},
		{name: "crlf", data: "a\r\nb\r\n", want: models.Counts{Lines: 2, Characters: 2}},
		{name: "utf8 counts bytes", data: "é\n", want: models.Counts{Lines: 1, Characters: 2}},
		{name: "nul is not whitespace", data: "\x00", want: models.Counts{Characters: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count([]byte(tt.data)))
		})
	}
}

func TestIsSpace(t *testing.T) {
	for _, b := range []byte(" \t\n\v\f\r") {
		assert.True(t, IsSpace(b), "%q should be whitespace", b)
	}
	for _, b := range []byte("a0_\x00\x85\xa0") {
		assert.False(t, IsSpace(b), "%q should not be whitespace", b)
	}
}

func TestCountReaderMatchesCount(t *testing.T) {
	// Larger than one buffer so chunk boundaries are exercised.
	data := strings.Repeat("word word\n\t  x\n", 20000)

	got, err := CountReader(iotest.HalfReader(strings.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, Count([]byte(data)), got)
	assert.Equal(t, int64(40000), got.Lines)
	assert.Equal(t, int64(180000), got.Characters)
}

func TestCountReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := CountReader(io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom)))
	require.ErrorIs(t, err, boom)
}

func TestCountFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("one two\nthree\nfour\n"), 0644))

	counts, err := CountFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.Counts{Lines: 3, Characters: 15}, counts)
}

func TestCountFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := CountFile(filepath.Join(dir, "missing.txt"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFileOpenFailed)
		assert.ErrorIs(t, err, os.ErrNotExist)

		var fe *FileError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "open", fe.Op)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := CountFile(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFileUnreadable)
		assert.NotErrorIs(t, err, ErrFileOpenFailed)
	})
}
