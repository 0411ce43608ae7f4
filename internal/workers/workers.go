package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Workers runs a set of workers concurrently as one unit.
type Workers struct {
	workers []Worker
}

// New aggregates the given workers.
func New(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run starts every worker in its own goroutine and blocks until all of them
// have returned. The first non-nil error cancels the shared context of the
// remaining workers and is returned after the drain completes.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		worker := worker
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}
	return g.Wait()
}
