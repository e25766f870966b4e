package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Run("RunsAllTasks", func(t *testing.T) {
		pool, err := NewPool(4)
		require.NoError(t, err)
		defer pool.Release()

		tasks := make([]Task, 20)
		for i := range tasks {
			i := i
			tasks[i] = func(ctx context.Context) ChunkResult {
				return ChunkResult{RowsSeen: i}
			}
		}

		seen := make(map[int]bool)
		for result := range pool.Run(context.Background(), tasks) {
			require.NoError(t, result.Err)
			seen[result.RowsSeen] = true
		}
		assert.Len(t, seen, 20)
	})

	t.Run("BoundsParallelism", func(t *testing.T) {
		pool, err := NewPool(2)
		require.NoError(t, err)
		defer pool.Release()

		var active, peak int32
		var mu sync.Mutex

		tasks := make([]Task, 10)
		for i := range tasks {
			tasks[i] = func(ctx context.Context) ChunkResult {
				n := atomic.AddInt32(&active, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return ChunkResult{}
			}
		}

		for range pool.Run(context.Background(), tasks) {
		}

		mu.Lock()
		defer mu.Unlock()
		assert.LessOrEqual(t, peak, int32(2))
	})

	t.Run("CompletionOrderIsUnordered", func(t *testing.T) {
		pool, err := NewPool(4)
		require.NoError(t, err)
		defer pool.Release()

		// The first-submitted task sleeps long enough that the rest must
		// finish ahead of it; consumers see completion order, not
		// submission order.
		tasks := make([]Task, 4)
		for i := range tasks {
			i := i
			tasks[i] = func(ctx context.Context) ChunkResult {
				if i == 0 {
					time.Sleep(150 * time.Millisecond)
				}
				return ChunkResult{RowsSeen: i + 1, RowsWritten: i + 1}
			}
		}

		var order []int
		var totals Totals
		for result := range pool.Run(context.Background(), tasks) {
			order = append(order, result.RowsSeen)
			totals.Add(result)
		}

		require.Len(t, order, 4)
		assert.NotEqual(t, 1, order[0], "slowest task must not complete first")
		assert.Equal(t, 1, order[len(order)-1], "slowest task completes last")

		assert.Equal(t, 4, totals.Chunks)
		assert.Equal(t, 10, totals.RowsSeen, "aggregation is order-independent")
		assert.Equal(t, 10, totals.RowsWritten)
		assert.Zero(t, totals.FailedChunks)
	})

	t.Run("ContainsPanics", func(t *testing.T) {
		pool, err := NewPool(2)
		require.NoError(t, err)
		defer pool.Release()

		tasks := []Task{
			func(ctx context.Context) ChunkResult { return ChunkResult{RowsWritten: 5} },
			func(ctx context.Context) ChunkResult { panic("chunk blew up") },
			func(ctx context.Context) ChunkResult { return ChunkResult{RowsWritten: 7} },
		}

		var totals Totals
		for result := range pool.Run(context.Background(), tasks) {
			totals.Add(result)
		}

		assert.Equal(t, 3, totals.Chunks)
		assert.Equal(t, 1, totals.FailedChunks)
		assert.Equal(t, 12, totals.RowsWritten)
	})

	t.Run("MinimumSizeOne", func(t *testing.T) {
		pool, err := NewPool(0)
		require.NoError(t, err)
		defer pool.Release()
		assert.Equal(t, 1, pool.Size())
	})
}
