// Package workerpool fans work out over a bounded number of goroutines.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when a non-positive limit is given
const DefaultLimit = 4

// Result is the outcome of one item
type Result[T any] struct {
	Item T
	Err  error
}

// Run calls fn for every item with at most limit calls in flight and returns
// one Result per item in input order. A failing item never cancels the
// others. Items not yet started when ctx is done get ctx.Err().
func Run[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) []Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]Result[T], len(items))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		results[i].Item = item
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Err = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed returns the results that carry an error
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
