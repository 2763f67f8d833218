// Package lock provides the per-candidate operation flag that keeps two
// composite workflow operations from running on the same record at once.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned when another operation already holds the key.
var ErrHeld = errors.New("lock is held")

// Locker hands out non-blocking exclusive locks keyed by string
type Locker interface {
	// TryLock acquires key or fails immediately with ErrHeld. The returned
	// function releases the lock and is safe to call more than once.
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// MemoryLocker keeps lock state in process memory
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
