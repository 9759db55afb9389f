package engine

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout is returned when a request could not acquire its symbol's
// lock within the configured window. Transient: callers may retry.
var ErrLockTimeout = errors.New("symbol lock acquisition timed out")

// symbolLocks serializes plan -> pipeline -> record per symbol while keeping
// distinct symbols fully parallel.
type symbolLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{slots: map[string]chan struct{}{}}
}

func (l *symbolLocks) slot(symbol string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[symbol]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[symbol] = s
	}
	return s
}

// acquire blocks until the symbol's lock is free or ctx expires. On success
// it returns the release func; the caller must invoke it exactly once.
func (l *symbolLocks) acquire(ctx context.Context, symbol string) (func(), error) {
	s := l.slot(symbol)
	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-ctx.Done():
		return nil, ErrLockTimeout
	}
}
