package querystate

import (
	"net/url"
	"slices"
	"sync"
)

// HistoryMode determines how a URL update is recorded.
type HistoryMode int

const (
	// ModeReplace overwrites the current history entry.
	ModeReplace HistoryMode = iota

	// ModePush adds a new history entry.
	ModePush
)

// String returns "replace" or "push".
func (m HistoryMode) String() string {
	if m == ModePush {
		return "push"
	}
	return "replace"
}

// Patch is a set of query parameter writes. A key mapped to nil is removed.
type Patch map[string]*string

// SetValue records a write of value to key.
func (p Patch) SetValue(key, value string) Patch {
	p[key] = &value
	return p
}

// Delete records the removal of key.
func (p Patch) Delete(key string) Patch {
	p[key] = nil
	return p
}

// Change describes a store update delivered to subscribers.
type Change struct {
	// Query is a snapshot of the parameters after the change.
	Query url.Values

	// Keys lists the parameters whose value changed, sorted.
	Keys []string

	// Mode is the history mode of the write.
	Mode HistoryMode

	// Navigation is true when the change did not come from a binding,
	// e.g. the back button or a typed URL.
	Navigation bool
}

// Has reports whether key is among the changed keys.
func (c Change) Has(key string) bool {
	_, found := slices.BinarySearch(c.Keys, key)
	return found
}

// Store is the shared query-string state.
type Store interface {
	// Get returns the first value for key.
	Get(key string) (string, bool)

	// Values returns a copy of all parameters.
	Values() url.Values

	// Apply writes p. A patch that changes nothing is dropped and does not
	// create a history entry.
	Apply(p Patch, mode HistoryMode)

	// Subscribe registers fn for every effective change.
	Subscribe(fn func(Change)) (unsubscribe func())
}

// MemoryStore is a Store with an in-memory history stack.
type MemoryStore struct {
	mu      sync.Mutex
	current url.Values
	history []string
	subs    map[int]func(Change)
	nextSub int
}

// NewMemoryStore creates a store seeded with initial.
func NewMemoryStore(initial url.Values) *MemoryStore {
	current := cloneValues(initial)
	return &MemoryStore{
		current: current,
		history: []string{current.Encode()},
		subs:    make(map[int]func(Change)),
	}
}

// Get returns the first value for key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.current[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values returns a copy of all parameters.
func (s *MemoryStore) Values() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.current)
}

// Encode returns the current query string with keys sorted.
func (s *MemoryStore) Encode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Encode()
}

// HistoryLen returns the number of history entries.
func (s *MemoryStore) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Apply writes p and notifies subscribers if anything changed.
func (s *MemoryStore) Apply(p Patch, mode HistoryMode) {
	s.mu.Lock()
	var keys []string
	for key, v := range p {
		old, had := s.current[key]
		switch {
		case v == nil:
			if had {
				delete(s.current, key)
				keys = append(keys, key)
			}
		case !had || len(old) != 1 || old[0] != *v:
			s.current[key] = []string{*v}
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		s.mu.Unlock()
		return
	}
	slices.Sort(keys)

	encoded := s.current.Encode()
	if mode == ModePush {
		s.history = append(s.history, encoded)
	} else {
		s.history[len(s.history)-1] = encoded
	}
	change := Change{Query: cloneValues(s.current), Keys: keys, Mode: mode}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

// Navigate replaces the whole query as if the user typed a new URL.
func (s *MemoryStore) Navigate(q url.Values) {
	s.mu.Lock()
	keys := diffKeys(s.current, q)
	s.current = cloneValues(q)
	s.history = append(s.history, s.current.Encode())
	change := Change{Query: cloneValues(s.current), Keys: keys, Mode: ModePush, Navigation: true}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

// Back pops the current history entry. It reports false when there is
// nothing to go back to.
func (s *MemoryStore) Back() bool {
	s.mu.Lock()
	if len(s.history) < 2 {
		s.mu.Unlock()
		return false
	}
	s.history = s.history[:len(s.history)-1]
	prev, _ := url.ParseQuery(s.history[len(s.history)-1])
	keys := diffKeys(s.current, prev)
	s.current = prev
	change := Change{Query: cloneValues(prev), Keys: keys, Mode: ModeReplace, Navigation: true}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return true
}

// Subscribe registers fn for every effective change.
func (s *MemoryStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshotSubs returns subscribers in registration order. Caller holds mu.
func (s *MemoryStore) snapshotSubs() []func(Change) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Change), len(ids))
	for i, id := range ids {
		out[i] = s.subs[id]
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = slices.Clone(vs)
	}
	return out
}

func diffKeys(a, b url.Values) []string {
	var keys []string
	for k, av := range a {
		if bv, ok := b[k]; !ok || !slices.Equal(av, bv) {
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
