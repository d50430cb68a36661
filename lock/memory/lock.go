// Package memory provides an in-process Locker for single-server deployments
// and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/subwave/lock"
)

var _ lock.Locker = (*Lock)(nil)

// Lock implements lock.Locker with one semaphore per key. Entries are dropped
// once no goroutine holds or waits for them. The ttl argument is ignored: a
// holder cannot outlive the process that owns the lock.
type Lock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	held chan struct{}
	refs int
}

// New creates a new in-memory lock.
func New() *Lock {
	return &Lock{locks: make(map[string]*lockEntry)}
}

func (l *Lock) ref(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{held: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Lock) unref(key string, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// Acquire obtains the lock for key, blocking until acquired or ctx is done.
func (l *Lock) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	entry := l.ref(key)

	select {
	case entry.held <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, entry)
		return nil, fmt.Errorf("acquire lock for %s: %w", key, ctx.Err())
	}

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			<-entry.held
			l.unref(key, entry)
		})
	}, nil
}

// Len returns the number of keys currently held or awaited.
func (l *Lock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
