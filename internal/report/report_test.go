package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/tally/internal/models"
)

func sampleReport() Report {
	return Report{
		Summary: models.Summary{
			RunID:         "3f1c",
			Root:          "/data",
			Extensions:    []string{"txt", "md"},
			Totals:        models.Counts{Lines: 3, Characters: 10},
			FilesCounted:  1,
			FilesSkipped:  0,
			Workers:       4,
			QueueCapacity: 100,
			QueueOrder:    "lifo",
			StartedAt:     time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
			Duration:      1234 * time.Millisecond,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "md", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: "html", want: FormatHTML},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatText))
	assert.Equal(t, "Process finished successfully.\nFound 3 lines and 10 characters.\n", buf.String())
}

func TestRenderTextWithFiles(t *testing.T) {
	r := sampleReport()
	r.Files = []models.FileResult{{Path: "/data/a.txt", Counts: models.Counts{Lines: 3, Characters: 10}}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	assert.True(t, strings.HasPrefix(buf.String(), "/data/a.txt  Lines: 3, non-whitespace characters: 10\n"))
}

func TestRenderTextColor(t *testing.T) {
	r := sampleReport()
	r.Color = true

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "Process finished successfully.")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "3f1c", got["run_id"])
	assert.Equal(t, map[string]any{"lines": float64(3), "characters": float64(10)}, got["totals"])
	assert.NotContains(t, got, "files", "empty file list omitted")
}

func TestRenderYAML(t *testing.T) {
	r := sampleReport()
	r.Files = []models.FileResult{{Path: "/data/a.txt", Counts: models.Counts{Lines: 3, Characters: 10}}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatYAML))

	var got struct {
		RunID  string              `yaml:"run_id"`
		Totals models.Counts       `yaml:"totals"`
		Files  []models.FileResult `yaml:"files"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "3f1c", got.RunID)
	assert.Equal(t, models.Counts{Lines: 3, Characters: 10}, got.Totals)
	assert.Equal(t, r.Files, got.Files)
}

func TestRenderMarkdownTable(t *testing.T) {
	r := sampleReport()
	r.Summary.Root = "/data/odd|name"
	r.Files = []models.FileResult{
		{Path: "/data/a.txt", Counts: models.Counts{Lines: 3, Characters: 10}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatMarkdown))
	src := buf.Bytes()

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var tables, rows int
	require.NoError(t, ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case east.KindTable:
			tables++
		case east.KindTableRow:
			rows++
		}
		return ast.WalkContinue, nil
	}))

	assert.Equal(t, 2, tables)
	assert.Equal(t, 12, rows, "eleven metric rows plus one file row")
	assert.Contains(t, buf.String(), `/data/odd\|name`)
}

func TestRenderHTML(t *testing.T) {
	r := sampleReport()
	r.Files = []models.FileResult{{Path: "/data/<b>.txt", Counts: models.Counts{Lines: 1}}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatHTML))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Tally run 3f1c</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Characters</td>")
	assert.NotContains(t, out, "<b>.txt", "paths are escaped")
	assert.Contains(t, out, "/data/&lt;b&gt;.txt")
}

func TestRenderUnknownFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, sampleReport(), Format("pdf")))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	r := sampleReport()
	r.Color = true

	require.NoError(t, WriteFile(context.Background(), path, r, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "3f1c"`)

	require.NoError(t, WriteFile(context.Background(), filepath.Join(filepath.Dir(path), "report.txt"), r, FormatText))
	data, err = os.ReadFile(filepath.Join(filepath.Dir(path), "report.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x1b[", "files never get color")
}
