package workers

import (
	"context"
	"fmt"
	"sync"
)

// Workers runs a fixed set of workers. The sync orchestrator and the health
// watchdog are the workers of the budget-sync client.
type Workers struct {
	workers []Worker

	mu      sync.Mutex
	started []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Start starts the workers in order. If one fails, the ones already started
// are stopped again and the error is returned.
func (w *Workers) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, worker := range w.workers {
		if err := worker.Start(ctx); err != nil {
			stopReverse(w.started)
			w.started = nil
			return fmt.Errorf("start worker %d: %w", i, err)
		}
		w.started = append(w.started, worker)
	}
	return nil
}

// Stop stops the started workers in reverse order.
func (w *Workers) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	stopReverse(w.started)
	w.started = nil
}

func stopReverse(workers []Worker) {
	for i := len(workers) - 1; i >= 0; i-- {
		workers[i].Stop()
	}
}
