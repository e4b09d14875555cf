package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryGenerationLock_AcquireRelease(t *testing.T) {
	l := NewInMemoryGenerationLock()
	defer l.Close()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "driver:vehicle:2025-03-03..2025-03-10", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire on the same key fails while held.
	ok, err = l.Acquire(ctx, "driver:vehicle:2025-03-03..2025-03-10", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "driver:vehicle:2025-03-03..2025-03-10"))

	ok, err = l.Acquire(ctx, "driver:vehicle:2025-03-03..2025-03-10", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryGenerationLock_ExpiredLockReacquirable(t *testing.T) {
	l := NewInMemoryGenerationLock()
	defer l.Close()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryGenerationLock_ConcurrentAcquire(t *testing.T) {
	l := NewInMemoryGenerationLock()
	defer l.Close()
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Acquire(ctx, "contended", time.Minute)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}

func TestInMemoryGenerationLock_ReleaseUnheldIsNoop(t *testing.T) {
	l := NewInMemoryGenerationLock()
	defer l.Close()

	require.NoError(t, l.Release(context.Background(), "never-held"))
}
