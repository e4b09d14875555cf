package cache

import (
	"context"
	"sync"
	"time"
)

type lockEntry struct {
	expiresAt time.Time
}

// InMemoryGenerationLock implements GenerationLock with a local map.
// Suitable for single-instance deployments and testing. Expired locks are
// swept by a background goroutine so abandoned keys do not pile up.
type InMemoryGenerationLock struct {
	mu        sync.Mutex
	locks     map[string]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryGenerationLock creates an in-memory generation lock
func NewInMemoryGenerationLock() *InMemoryGenerationLock {
	l := &InMemoryGenerationLock{
		locks:    make(map[string]lockEntry),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Acquire takes the lock for key unless a live entry already holds it
func (l *InMemoryGenerationLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.locks[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	l.locks[key] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the lock for key
func (l *InMemoryGenerationLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

// Close stops the cleanup goroutine
func (l *InMemoryGenerationLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

func (l *InMemoryGenerationLock) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryGenerationLock) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.locks {
		if now.After(e.expiresAt) {
			delete(l.locks, key)
		}
	}
}

var _ GenerationLock = (*InMemoryGenerationLock)(nil)
