// Package report renders run summaries for people and for machines.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/harrison/tally/internal/filelock"
	"github.com/harrison/tally/internal/models"
)

// Format is an output format name.
type Format string

// Supported formats
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format in help order.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat accepts a format name case-insensitively; "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q, must be one of: text, json, yaml, markdown, html", s)
}

// Report is what gets rendered: a run summary and, optionally, its per-file results.
type Report struct {
	Summary models.Summary
	Files   []models.FileResult

	// Color highlights the totals in text output.
	Color bool
}

// document is the machine-readable shape of a Report.
type document struct {
	models.Summary `yaml:",inline"`
	Files          []models.FileResult `json:"files,omitempty" yaml:"files,omitempty"`
}

// Render writes r to w in format f.
func Render(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatText:
		return renderText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(document{Summary: r.Summary, Files: r.Files}); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Summary: r.Summary, Files: r.Files}); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, markdown(r))
		return err
	case FormatHTML:
		return renderHTML(w, r)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// WriteFile renders r into path atomically while holding path's lock file.
func WriteFile(ctx context.Context, path string, r Report, f Format) error {
	r.Color = false
	return filelock.LockAndWrite(ctx, path, func(w io.Writer) error {
		return Render(w, r, f)
	})
}

func renderText(w io.Writer, r Report) error {
	lines := fmt.Sprint(r.Summary.Totals.Lines)
	chars := fmt.Sprint(r.Summary.Totals.Characters)
	if r.Color {
		total := color.New(color.FgGreen, color.Bold)
		total.EnableColor()
		lines = total.Sprint(lines)
		chars = total.Sprint(chars)
	}

	var sb strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&sb, "%s  Lines: %d, non-whitespace characters: %d\n", f.Path, f.Counts.Lines, f.Counts.Characters)
	}
	sb.WriteString("Process finished successfully.\n")
	fmt.Fprintf(&sb, "Found %s lines and %s characters.\n", lines, chars)

	_, err := io.WriteString(w, sb.String())
	return err
}

// cellEscaper keeps a value from breaking out of a Markdown table cell or
// being read as markup.
var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"<", `\<`,
	"*", `\*`,
	"`", "\\`",
	"\n", " ",
)

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

func markdown(r Report) string {
	s := r.Summary
	exts := "(none)"
	if len(s.Extensions) > 0 {
		exts = strings.Join(s.Extensions, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Tally run %s\n\n", s.RunID)
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Root", escapeCell(s.Root)},
		{"Extensions", escapeCell(exts)},
		{"Lines", fmt.Sprint(s.Totals.Lines)},
		{"Characters", fmt.Sprint(s.Totals.Characters)},
		{"Files counted", fmt.Sprint(s.FilesCounted)},
		{"Files skipped", fmt.Sprint(s.FilesSkipped)},
		{"Walk errors", fmt.Sprint(s.WalkErrors)},
		{"Workers", fmt.Sprint(s.Workers)},
		{"Queue", fmt.Sprintf("%s, capacity %d", s.QueueOrder, s.QueueCapacity)},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "| %s | %s |\n", row[0], row[1])
	}

	if len(r.Files) > 0 {
		sb.WriteString("\n## Files\n\n| Path | Lines | Characters |\n|---|---:|---:|\n")
		for _, f := range r.Files {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", escapeCell(f.Path), f.Counts.Lines, f.Counts.Characters)
		}
	}
	return sb.String()
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func renderHTML(w io.Writer, r Report) error {
	var body bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown(r)), &body); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Tally run %s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.Summary.RunID), body.String())
	return err
}
