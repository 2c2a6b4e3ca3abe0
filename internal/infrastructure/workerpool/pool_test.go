package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("results keep input order", func(t *testing.T) {
		items := []int{5, 1, 4, 2, 3}
		var seen atomic.Int64

		results := Run(context.Background(), 2, items, func(_ context.Context, n int) error {
			time.Sleep(time.Duration(n) * time.Millisecond)
			seen.Add(int64(n))
			return nil
		})

		require.Len(t, results, len(items))
		for i, r := range results {
			assert.Equal(t, items[i], r.Item)
			assert.NoError(t, r.Err)
		}
		assert.Equal(t, int64(15), seen.Load())
	})

	t.Run("never exceeds the limit", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		items := make([]int, 20)

		Run(context.Background(), 3, items, func(context.Context, int) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		})

		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.GreaterOrEqual(t, peak.Load(), int32(1))
	})

	t.Run("errors are collected without stopping siblings", func(t *testing.T) {
		boom := errors.New("boom")
		var calls atomic.Int32

		results := Run(context.Background(), 2, []int{1, 2, 3, 4}, func(_ context.Context, n int) error {
			calls.Add(1)
			if n%2 == 0 {
				return boom
			}
			return nil
		})

		assert.Equal(t, int32(4), calls.Load())
		failed := Failed(results)
		require.Len(t, failed, 2)
		assert.Equal(t, 2, failed[0].Item)
		assert.ErrorIs(t, failed[1].Err, boom)
	})

	t.Run("cancelled context marks unstarted items", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var calls atomic.Int32

		results := Run(ctx, 2, []string{"a", "b"}, func(context.Context, string) error {
			calls.Add(1)
			return nil
		})

		assert.Equal(t, int32(0), calls.Load())
		for _, r := range results {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	})

	t.Run("non-positive limit uses default", func(t *testing.T) {
		results := Run(context.Background(), 0, []int{1, 2, 3}, func(context.Context, int) error { return nil })
		assert.Len(t, results, 3)
		assert.Empty(t, Failed(results))
	})
}
