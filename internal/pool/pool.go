// Package pool schedules per-item work across bounded parallel workers.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result carries one item's outcome. Err is the item's own failure; it never
// affects sibling items.
type Result[R any] struct {
	Value R
	Err   error
}

// Map runs fn over items with at most workers running concurrently and
// returns one result per item, in input order. Each task owns its result
// slot exclusively, so no aggregation locking is needed.
//
// A task failure (error or panic) is captured in that item's slot and does
// not cancel in-flight siblings. If ctx is cancelled, tasks not yet started
// fail with the context error while running tasks finish normally, so a
// partially written cache entry is never left behind.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) []Result[R] {
	if workers < 1 {
		workers = 1
	}

	results := make([]Result[R], len(items))

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i := range items {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = protect(ctx, items[i], fn)
			return nil
		})
	}

	// Task errors live in their slots; Wait only synchronizes.
	_ = g.Wait()
	return results
}

// protect converts a panicking task into a per-item error.
func protect[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (val R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx, item)
}
