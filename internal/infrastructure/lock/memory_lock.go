// Package lock provides per-key mutual exclusion for customer mutations.
package lock

import (
	"context"
	"sync"

	"github.com/hydrospark/backend/internal/domain/shared"
)

// keyLock is a one-slot semaphore so waiting can be abandoned on ctx.Done
type keyLock struct {
	sem     chan struct{}
	waiters int
}

// InMemoryKeyedLocker serializes callers per key inside one process.
// Entries are reference counted and removed when no one holds or waits.
type InMemoryKeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewInMemoryKeyedLocker creates an empty locker
func NewInMemoryKeyedLocker() *InMemoryKeyedLocker {
	return &InMemoryKeyedLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done
func (l *InMemoryKeyedLocker) Lock(ctx context.Context, key string) (shared.UnlockFunc, error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.waiters++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, kl, true) })
	}, nil
}

func (l *InMemoryKeyedLocker) release(key string, kl *keyLock, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held {
		<-kl.sem
	}
	kl.waiters--
	if kl.waiters == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *InMemoryKeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ shared.KeyedLocker = (*InMemoryKeyedLocker)(nil)
