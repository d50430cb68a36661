// Package lock serializes mutations per record address.
//
// Operations on the same key are linearized by holding its lock for the whole
// read, pay and commit sequence. Different keys never contend.
package lock

import (
	"context"
	"slices"
	"time"
)

// Locker acquires exclusive per-key locks.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done. The
	// returned release function is safe to call more than once. Backends that
	// support expiry drop the lock after ttl even if release is never called.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// AcquireAll acquires the locks for all keys in sorted order, so two callers
// locking overlapping key sets cannot deadlock. Duplicate keys are locked once.
// On failure every lock already taken is released.
func AcquireAll(ctx context.Context, l Locker, ttl time.Duration, keys ...string) (func(), error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	releases := make([]func(), 0, len(sorted))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, key := range sorted {
		release, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
