package logger

import "github.com/harrison/tally/internal/models"

// MultiLogger fans every call out to each of its loggers in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers. Nil entries are dropped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(message string) { m.each(func(l Logger) { l.LogTrace(message) }) }
func (m *MultiLogger) LogDebug(message string) { m.each(func(l Logger) { l.LogDebug(message) }) }
func (m *MultiLogger) LogInfo(message string)  { m.each(func(l Logger) { l.LogInfo(message) }) }
func (m *MultiLogger) LogWarn(message string)  { m.each(func(l Logger) { l.LogWarn(message) }) }
func (m *MultiLogger) LogError(message string) { m.each(func(l Logger) { l.LogError(message) }) }

func (m *MultiLogger) LogRunStart(root string, extensions []string, workers int) {
	m.each(func(l Logger) { l.LogRunStart(root, extensions, workers) })
}

func (m *MultiLogger) LogSummary(summary models.Summary) {
	m.each(func(l Logger) { l.LogSummary(summary) })
}

func (m *MultiLogger) FileQueued(path string) {
	m.each(func(l Logger) { l.FileQueued(path) })
}

func (m *MultiLogger) FileCounted(result models.FileResult) {
	m.each(func(l Logger) { l.FileCounted(result) })
}

func (m *MultiLogger) FileSkipped(path string, reason error) {
	m.each(func(l Logger) { l.FileSkipped(path, reason) })
}

func (m *MultiLogger) StageFinished(stage models.Stage) {
	m.each(func(l Logger) { l.StageFinished(stage) })
}
