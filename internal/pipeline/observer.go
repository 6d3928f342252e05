package pipeline

import "github.com/harrison/tally/internal/models"

// Observer receives diagnostic events from the running stages.
// Methods are called concurrently from several goroutines.
type Observer interface {
	// FileQueued is called after the discoverer pushes a path.
	FileQueued(path string)
	// FileCounted is called by a worker after it has counted a file.
	FileCounted(result models.FileResult)
	// FileSkipped is called when a file or subtree contributes nothing.
	FileSkipped(path string, reason error)
	// StageFinished is called once per stage goroutine as it exits.
	StageFinished(stage models.Stage)
}

type noopObserver struct{}

func (noopObserver) FileQueued(string)             {}
func (noopObserver) FileCounted(models.FileResult) {}
func (noopObserver) FileSkipped(string, error)     {}
func (noopObserver) StageFinished(models.Stage)    {}
