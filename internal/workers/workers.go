package workers

import "context"

type Workers struct {
	workers []Worker
}

// NewWorkers bundles the given workers into a single runnable aggregate.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run starts every registered worker with the shared lifecycle context.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Run(ctx)
	}
}
