package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run starts every worker and returns once all of them have stopped.
func (w *Workers) Run(ctx context.Context) {
	var g errgroup.Group
	for _, worker := range w.workers {
		g.Go(func() error {
			worker.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
