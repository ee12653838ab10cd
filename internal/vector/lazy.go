package vector

import (
	"context"
	"sync"
	"sync/atomic"
)

// BuildFunc constructs an index, typically by running the ingestion pipeline.
type BuildFunc func(ctx context.Context) (Index, error)

// Lazy builds an index on first use and shares it for the rest of the process. Concurrent first
// callers wait for a single build. Failed builds are not memoized; the next Get tries again.
type Lazy struct {
	build BuildFunc
	mu    sync.Mutex
	done  atomic.Bool
	index Index
}

// NewLazy returns a Lazy that calls build at most once successfully.
func NewLazy(build BuildFunc) *Lazy {
	return &Lazy{build: build}
}

// Get returns the shared index, building it if no build has succeeded yet.
func (l *Lazy) Get(ctx context.Context) (Index, error) {
	if l.done.Load() {
		return l.index, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Load() {
		return l.index, nil
	}
	idx, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.index = idx
	l.done.Store(true)
	return idx, nil
}

// Built reports whether a build has succeeded.
func (l *Lazy) Built() bool {
	return l.done.Load()
}

// Close closes the index if it was built.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done.Load() {
		return nil
	}
	return l.index.Close()
}
