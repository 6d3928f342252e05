package pipeline

import (
	"fmt"
	"sync"

	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/queue"
)

// coordinator owns the shutdown protocol: the discovery-done flag, the number
// of live workers, and the decision to close each queue. Every transition
// happens under mu. The coordinator takes queue locks (through Close) while
// holding mu, and queues never call back into it, so the lock order is fixed.
type coordinator struct {
	mu            sync.Mutex
	discoveryDone bool
	activeWorkers int

	work    *queue.Bounded[string]
	results *queue.Bounded[models.FileResult]
}

func newCoordinator(workers int, work *queue.Bounded[string], results *queue.Bounded[models.FileResult]) *coordinator {
	return &coordinator{
		activeWorkers: workers,
		work:          work,
		results:       results,
	}
}

// discoveryFinished closes the work queue. Only the first call has an effect.
func (c *coordinator) discoveryFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discoveryDone {
		return
	}
	c.discoveryDone = true
	c.work.Close()
}

// workerExited records one worker exit and closes the result queue when it
// was the last one. Workers only exit after the work queue reported
// empty-and-closed, so the result queue closes exactly when discovery is
// done, the work queue is drained and no worker can push again.
func (c *coordinator) workerExited() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeWorkers <= 0 {
		panic(fmt.Sprintf("pipeline: worker exit with %d active workers", c.activeWorkers))
	}
	c.activeWorkers--
	if c.activeWorkers == 0 {
		c.results.Close()
	}
}

// active returns the number of workers that have not exited.
func (c *coordinator) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeWorkers
}

// done reports whether discovery has finished.
func (c *coordinator) done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discoveryDone
}
