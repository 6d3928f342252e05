package pipeline

import (
	"sync/atomic"

	"github.com/harrison/tally/internal/counter"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/queue"
)

// CountFunc computes the counts for one file.
type CountFunc func(path string) (models.Counts, error)

// workerPool holds what every worker loop shares. Any goroutine may call
// run, including the discovery goroutine once its walk is over.
type workerPool struct {
	work     *queue.Bounded[string]
	results  *queue.Bounded[models.FileResult]
	coord    *coordinator
	count    CountFunc
	observer Observer

	failed atomic.Int64 // tasks dropped because the file could not be read
}

// run pops tasks until the work queue is empty and closed, then reports its
// exit to the coordinator. A task that fails to read is dropped, never retried.
func (p *workerPool) run() {
	defer p.observer.StageFinished(models.StageWorker)
	defer p.coord.workerExited()

	for {
		path, ok := p.work.Pop()
		if !ok {
			return
		}

		counts, err := p.count(path)
		if err != nil {
			p.failed.Add(1)
			p.observer.FileSkipped(path, err)
			continue
		}

		result := models.FileResult{Path: path, Counts: counts}
		p.observer.FileCounted(result)
		p.results.Push(result)
	}
}

func defaultCount(path string) (models.Counts, error) {
	return counter.CountFile(path)
}
