package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 2*time.Second, opts.Interval)
	assert.Equal(t, 1, opts.Burst)
}

func TestNew_AppliesDefaults(t *testing.T) {
	l := New(Options{Interval: -1, Burst: 0})
	require.NotNil(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// First token is available immediately
	require.NoError(t, l.Acquire(ctx))
}

func TestAcquire_UniformSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	l := New(Options{Interval: interval, Burst: 1})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	elapsed := time.Since(start)

	// First token is free, the next two wait one interval each
	assert.GreaterOrEqual(t, elapsed, 2*interval)
	assert.Less(t, elapsed, 4*interval)
}

func TestAcquire_ConcurrentCallers(t *testing.T) {
	interval := 20 * time.Millisecond
	l := New(Options{Interval: interval, Burst: 1})

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)

	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Acquire(context.Background())
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// callers-1 of them had to wait for replenishment
	assert.GreaterOrEqual(t, elapsed, time.Duration(callers-1)*interval)
}

func TestAcquire_ContextCancelled(t *testing.T) {
	l := New(Options{Interval: time.Hour, Burst: 1})

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx)) // drains the bucket

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(cancelCtx)
	assert.Error(t, err)
}
