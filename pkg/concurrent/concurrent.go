// Package concurrent runs the elements of a sequence on goroutines.
package concurrent

import (
	"context"
	"sync"

	"github.com/zeusync/ownership/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Each runs action for every element with at most limit goroutines at once
// (no bound when limit <= 0). It waits for all started goroutines and returns
// the first error. After a failure the context passed to action is canceled
// and no further elements are started.
func Each[T any](ctx context.Context, i *sequence.Iterator[T], limit int, action func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for value := range i.Seq() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return action(ctx, value)
		})
	}
	return g.Wait()
}

// Throttle limits the number of concurrent goroutines running action.
func Throttle[T any](i *sequence.Iterator[T], concurrency int, action func(T)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(concurrency, 1))
	for value := range i.Seq() {
		wg.Add(1)
		sem <- struct{}{}
		go func(v T) {
			defer wg.Done()
			defer func() { <-sem }()
			action(v)
		}(value)
	}
	wg.Wait()
}

// Batch processes elements in chunks of size batchSize, each chunk in a separate goroutine.
func Batch[T any](i *sequence.Iterator[T], batchSize int, action func([]T)) {
	in := i.Collect()
	batchSize = max(batchSize, 1)

	var wg sync.WaitGroup
	for idx := 0; idx < len(in); idx += batchSize {
		end := min(idx+batchSize, len(in))
		wg.Add(1)
		go func(chunk []T) {
			defer wg.Done()
			action(chunk)
		}(in[idx:end])
	}
	wg.Wait()
}
