package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesInputOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := Map(context.Background(), items, 8, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	require.Len(t, results, len(items))
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i*2, r.Value)
	}
}

func TestMapIsolatesFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	results := Map(context.Background(), []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 3, results[2].Value)
}

func TestMapRecoversPanics(t *testing.T) {
	t.Parallel()

	results := Map(context.Background(), []int{1, 2}, 1, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			panic("worker exploded")
		}
		return n, nil
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "worker exploded")
}

func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3
	var running, peak atomic.Int32

	gate := make(chan struct{})
	var once sync.Once

	items := make([]int, 20)
	Map(context.Background(), items, workers, func(_ context.Context, _ int) (int, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		once.Do(func() { close(gate) })
		<-gate
		running.Add(-1)
		return 0, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestMapCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	results := Map(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		return n, nil
	})

	// Tasks observe cancellation before starting.
	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, ran.Load())
}

func TestMapZeroWorkers(t *testing.T) {
	t.Parallel()

	results := Map(context.Background(), []int{7}, 0, func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	})
	require.Len(t, results, 1)
	assert.Equal(t, 8, results[0].Value)
}

func TestMapEmptyInput(t *testing.T) {
	t.Parallel()

	results := Map(context.Background(), nil, 4, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Empty(t, results)
}
