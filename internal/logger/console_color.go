package logger

import (
	"fmt"

	"github.com/fatih/color"
)

// metricKind selects the value color of a summary metric.
type metricKind int

const (
	metricNeutral metricKind = iota
	metricSuccess
	metricFailure
)

// colorScheme defines consistent colors for different metric types.
// Green: counted totals
// Red: skipped files, when there are any
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatColorizedMetric formats a single metric with colorized label and value.
// Format: "label: value"
func formatColorizedMetric(label string, value interface{}, kind metricKind, scheme *colorScheme) string {
	valueColor := scheme.value
	switch kind {
	case metricSuccess:
		valueColor = scheme.success
	case metricFailure:
		if n, ok := value.(int); ok && n > 0 {
			valueColor = scheme.fail
		}
	}
	return fmt.Sprintf("%s: %s", scheme.label.Sprint(label), valueColor.Sprintf("%v", value))
}
