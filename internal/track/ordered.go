package track

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// mergeInOrder builds results 0..n-1 on up to workers goroutines and hands
// each one to mix in index order as soon as its predecessors are mixed.
//
// start is called sequentially in index order and returns the build step for
// i, so anything it draws from shared state is drawn in a fixed order. At most
// workers results exist between the start of their build and the end of their
// mix. The first error from a build or from mix stops the merge.
func mergeInOrder[T any](ctx context.Context, n, workers int, start func(i int) func() (T, error), mix func(i int, v T) error) error {
	if workers < 1 {
		workers = 1
	}
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// the mixer waits on one result while workers-1 more are queued
	pending := make(chan chan T, workers-1)
	g.Go(func() error {
		defer close(pending)
		for i := 0; i < n; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			done := make(chan T, 1)
			select {
			case pending <- done:
			case <-gctx.Done():
				return gctx.Err()
			}
			build := start(i)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := build()
				if err != nil {
					return err
				}
				done <- v
				return nil
			})
		}
		return nil
	})

	var mixErr error
	mixed := 0
merge:
	for done := range pending {
		select {
		case v := <-done:
			if mixErr = mix(mixed, v); mixErr != nil {
				break merge
			}
			mixed++
		case <-gctx.Done():
			break merge
		}
	}
	cancel()

	err := g.Wait()
	switch {
	case mixErr != nil:
		return mixErr
	case mixed == n:
		return nil
	case err != nil:
		return err
	}
	return parent.Err()
}
