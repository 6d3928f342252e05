package pipeline

import (
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/queue"
)

// aggregator is the single consumer of the result queue. total and files are
// owned by its goroutine and must only be read after run has returned.
type aggregator struct {
	results  *queue.Bounded[models.FileResult]
	observer Observer

	total models.Counts
	files int
}

func (a *aggregator) run() {
	defer a.observer.StageFinished(models.StageAggregation)

	for {
		result, ok := a.results.Pop()
		if !ok {
			return
		}
		a.total = a.total.Add(result.Counts)
		a.files++
	}
}
