package resource

import (
	"context"
	"sync"
)

// State is the lifecycle state of a Resource.
type State int

const (
	Pending State = iota // before the first load
	Loading              // fetch in progress
	Ready                // data loaded
	Error                // fetch failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Snapshot is the observable state of a Resource.
type Snapshot[T any] struct {
	State State
	Key   string
	Data  T
	Err   error
}

// IsLoading reports whether no result for the current key is available.
func (s Snapshot[T]) IsLoading() bool {
	return s.State == Pending || s.State == Loading
}

// Resource tracks the result for one changing key.
type Resource[P, T any] struct {
	cache    *Cache[P, T]
	onChange func(Snapshot[T])

	mu      sync.Mutex
	snap    Snapshot[T]
	params  P
	fetchID uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Resource creates a Resource backed by c. onChange runs after every state
// transition, possibly on another goroutine.
func (c *Cache[P, T]) Resource(onChange func(Snapshot[T])) *Resource[P, T] {
	return &Resource[P, T]{cache: c, onChange: onChange}
}

// Snapshot returns the current state.
func (r *Resource[P, T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Load switches the resource to key. A fresh cached value is applied
// immediately; otherwise the resource moves to Loading and fetches in the
// background. Any earlier load still in flight is superseded.
func (r *Resource[P, T]) Load(ctx context.Context, key string, params P) {
	r.mu.Lock()
	r.fetchID++
	id := r.fetchID
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.params = params

	if v, ok := r.cache.Peek(key); ok {
		r.cache.opts.metrics.hit(r.cache.opts.name)
		r.snap = Snapshot[T]{State: Ready, Key: key, Data: v}
		snap := r.snap
		r.mu.Unlock()
		r.emit(snap)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.snap = Snapshot[T]{State: Loading, Key: key, Data: r.snap.Data}
	snap := r.snap
	r.wg.Add(1)
	r.mu.Unlock()
	r.emit(snap)

	go func() {
		defer r.wg.Done()
		defer cancel()
		v, err := r.cache.Get(ctx, key, params)

		r.mu.Lock()
		if r.fetchID != id {
			r.mu.Unlock()
			r.cache.opts.metrics.supersede(r.cache.opts.name)
			return
		}
		r.cancel = nil
		if err != nil {
			r.snap = Snapshot[T]{State: Error, Key: key, Err: err}
		} else {
			r.snap = Snapshot[T]{State: Ready, Key: key, Data: v}
		}
		snap := r.snap
		r.mu.Unlock()
		r.emit(snap)
	}()
}

// Refetch drops the cached value for the current key and loads it again.
func (r *Resource[P, T]) Refetch(ctx context.Context) {
	r.mu.Lock()
	key, params := r.snap.Key, r.params
	r.mu.Unlock()
	r.cache.Invalidate(key)
	r.Load(ctx, key, params)
}

// Wait blocks until every background fetch has finished.
func (r *Resource[P, T]) Wait() {
	r.wg.Wait()
}

// Close supersedes any load in flight and waits for it to return.
func (r *Resource[P, T]) Close() {
	r.mu.Lock()
	r.fetchID++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Resource[P, T]) emit(s Snapshot[T]) {
	if r.onChange != nil {
		r.onChange(s)
	}
}
