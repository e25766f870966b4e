package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Task is one chunk's worth of work. It must be self-contained: workers
// own their chunk exclusively and open their own store handles.
type Task func(ctx context.Context) ChunkResult

// Pool is a fixed-size pool of parallel workers. The parallelism bound is
// the configured size, independent of how many tasks are submitted.
type Pool struct {
	inner  *ants.Pool
	logger *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a worker pool with the given number of workers.
func NewPool(size int, opts ...PoolOption) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	inner, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		inner:  inner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes tasks on the pool and streams their results in completion
// order, which is arbitrary: workers race, and consumers must not assume
// it matches submission order. The channel is closed once every task has
// finished. A panicking task is converted into a zero-result carrying the
// panic as an error.
func (p *Pool) Run(ctx context.Context, tasks []Task) <-chan ChunkResult {
	results := make(chan ChunkResult, len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))

	go func() {
		for _, task := range tasks {
			task := task
			err := p.inner.Submit(func() {
				defer wg.Done()
				results <- p.runTask(ctx, task)
			})
			if err != nil {
				// Pool released mid-run; report the task as failed.
				results <- ChunkResult{Err: fmt.Errorf("%w: %w", ErrPoolClosed, err)}
				wg.Done()
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runTask invokes one task, containing panics at the chunk boundary.
func (p *Pool) runTask(ctx context.Context, task Task) (result ChunkResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panic contained at chunk boundary", "panic", r)
			result = ChunkResult{Err: fmt.Errorf("worker panic: %v", r)}
		}
	}()
	return task(ctx)
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.inner.Cap()
}

// Release releases the pool's workers.
// The pool should not be used after calling Release.
func (p *Pool) Release() {
	p.inner.Release()
}
