package pipeline

import (
	"context"
	"errors"

	"github.com/harrison/tally/internal/fileutil"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/queue"
)

// discoverer is the single producer of the work queue.
type discoverer struct {
	root     string
	opts     fileutil.WalkOptions
	work     *queue.Bounded[string]
	coord    *coordinator
	observer Observer

	// Written only by the discovery goroutine; read after it has been joined.
	skipped    int
	walkErrors int
}

// run walks the tree, pushing every accepted path, and closes the work queue
// on the way out whatever the walk returned.
func (d *discoverer) run(ctx context.Context) error {
	defer d.observer.StageFinished(models.StageDiscovery)
	defer d.coord.discoveryFinished()

	return fileutil.Walk(ctx, d.root, d.opts, func(e fileutil.Entry) error {
		switch e.Kind {
		case fileutil.EntryAccepted:
			d.work.Push(e.Path)
			d.observer.FileQueued(e.Path)
		case fileutil.EntryUnmatched:
		case fileutil.EntryWalkError:
			d.walkErrors++
			d.observer.FileSkipped(e.Path, e.Err)
		case fileutil.EntryUnreadable:
			d.skipped++
			d.observer.FileSkipped(e.Path, e.Err)
		default:
			d.observer.FileSkipped(e.Path, e.Err)
		}
		return nil
	})
}

// isCancellation reports whether err came from the run context rather than the walk.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
