package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/tally/internal/fileutil"
	"github.com/harrison/tally/internal/models"
	"github.com/harrison/tally/internal/queue"
)

// ErrRootInaccessible is returned when the root path does not exist, is not a
// directory, or cannot be read. No stage has started when it is returned.
var ErrRootInaccessible = errors.New("root not accessible")

const (
	// DefaultQueueCapacity is the capacity of each hand-off queue.
	DefaultQueueCapacity = 100
	// DefaultMaxDepth bounds recursion below the root.
	DefaultMaxDepth = 100
)

// Options configures a run.
type Options struct {
	Root       string
	Extensions []string // without leading dot, matched case-sensitively

	// Workers is the number of dedicated worker goroutines (0 = runtime.NumCPU()).
	Workers int

	// QueueCapacity bounds both queues (0 = DefaultQueueCapacity).
	QueueCapacity int
	QueueOrder    queue.Order

	// MaxDepth bounds recursion below Root (0 = DefaultMaxDepth).
	MaxDepth    int
	ExcludeDirs []string

	// SkipSymlinks leaves symbolic links unfollowed. By default linked files
	// are counted and linked directories descended, each directory once.
	SkipSymlinks bool

	// RecycleDiscoverer makes the discovery goroutine run the worker loop
	// after the walk, adding one worker for the rest of the run.
	RecycleDiscoverer bool

	// Observer receives diagnostics; nil discards them.
	Observer Observer

	// Count replaces the per-file counting function; nil uses counter.CountFile.
	Count CountFunc
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = max(runtime.NumCPU(), 1)
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Observer == nil {
		o.Observer = noopObserver{}
	}
	if o.Count == nil {
		o.Count = defaultCount
	}
	return o
}

// CheckRoot verifies that root is an existing, readable directory.
func CheckRoot(root string) error {
	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootInaccessible, root, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootInaccessible, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory", ErrRootInaccessible, root)
	}
	// Opening a directory succeeds without read permission on some systems.
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %w", ErrRootInaccessible, root, err)
	}
	return nil
}

// Pipeline is one configured run: the two queues, the coordinator, and the
// three stages wired to them. A Pipeline runs once.
type Pipeline struct {
	opts Options

	work    *queue.Bounded[string]
	results *queue.Bounded[models.FileResult]
	coord   *coordinator

	disc *discoverer
	pool *workerPool
	agg  *aggregator
}

// New wires a pipeline for opts without starting anything.
func New(opts Options) *Pipeline {
	opts = opts.withDefaults()

	work := queue.NewWithOrder[string](opts.QueueCapacity, opts.QueueOrder)
	results := queue.NewWithOrder[models.FileResult](opts.QueueCapacity, opts.QueueOrder)

	workers := opts.Workers
	if opts.RecycleDiscoverer {
		workers++
	}
	coord := newCoordinator(workers, work, results)

	return &Pipeline{
		opts:    opts,
		work:    work,
		results: results,
		coord:   coord,
		disc: &discoverer{
			root: opts.Root,
			opts: fileutil.WalkOptions{
				Extensions:     opts.Extensions,
				MaxDepth:       opts.MaxDepth,
				FollowSymlinks: !opts.SkipSymlinks,
				ExcludeDirs:    opts.ExcludeDirs,
			},
			work:     work,
			coord:    coord,
			observer: opts.Observer,
		},
		pool: &workerPool{
			work:     work,
			results:  results,
			coord:    coord,
			count:    opts.Count,
			observer: opts.Observer,
		},
		agg: &aggregator{
			results:  results,
			observer: opts.Observer,
		},
	}
}

// Workers returns the number of goroutines that run the worker loop.
func (p *Pipeline) Workers() int {
	if p.opts.RecycleDiscoverer {
		return p.opts.Workers + 1
	}
	return p.opts.Workers
}

// Run checks the root, starts every stage concurrently and waits for all of
// them. The summary is built only after the aggregator has been joined.
//
// Cancelling ctx stops the walk early. Tasks already queued are still
// counted, the queues still close in order, and Run returns the partial
// summary together with ctx's error.
func (p *Pipeline) Run(ctx context.Context) (models.Summary, error) {
	if err := CheckRoot(p.opts.Root); err != nil {
		return models.Summary{}, err
	}

	started := time.Now()
	var g errgroup.Group

	g.Go(func() error {
		p.agg.run()
		return nil
	})
	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			p.pool.run()
			return nil
		})
	}
	g.Go(func() error {
		err := p.disc.run(ctx)
		if p.opts.RecycleDiscoverer {
			p.pool.run()
		}
		return err
	})

	walkErr := g.Wait()

	summary := models.Summary{
		RunID:         uuid.NewString(),
		Root:          p.opts.Root,
		Extensions:    append([]string(nil), p.opts.Extensions...),
		Totals:        p.agg.total,
		FilesCounted:  p.agg.files,
		FilesSkipped:  p.disc.skipped + int(p.pool.failed.Load()),
		WalkErrors:    p.disc.walkErrors,
		Workers:       p.Workers(),
		QueueCapacity: p.work.Cap(),
		QueueOrder:    p.work.Order().String(),
		StartedAt:     started,
		Duration:      time.Since(started),
	}

	if walkErr != nil {
		if isCancellation(walkErr) {
			return summary, walkErr
		}
		// The root was checked up front, so this is a root that vanished or
		// became unreadable mid-run.
		return summary, fmt.Errorf("%w: %s: %w", ErrRootInaccessible, p.opts.Root, walkErr)
	}
	return summary, nil
}

// Run counts every file under opts.Root whose extension is in opts.Extensions.
func Run(ctx context.Context, opts Options) (models.Summary, error) {
	return New(opts).Run(ctx)
}
