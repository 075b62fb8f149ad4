package querystate

import (
	"slices"
	"sync"
	"time"
)

// Option configures a Binding.
type Option interface {
	apply(*config)
}

type config struct {
	mode           HistoryMode
	timing         timing
	interval       time.Duration
	clearOnDefault bool
	clock          Clock
}

type timing int

const (
	timingImmediate timing = iota
	timingThrottle
	timingDebounce
)

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// Mode options as values to mirror their use as flags.
var (
	// Push records every write as a new history entry.
	Push Option = optionFunc(func(c *config) { c.mode = ModePush })

	// Replace overwrites the current history entry (the default).
	Replace Option = optionFunc(func(c *config) { c.mode = ModeReplace })
)

// History sets the history mode explicitly.
func History(mode HistoryMode) Option {
	return optionFunc(func(c *config) { c.mode = mode })
}

// Throttle writes the first change immediately and coalesces later ones
// into at most one write per interval. It replaces any Debounce option.
func Throttle(d time.Duration) Option {
	return optionFunc(func(c *config) {
		c.timing, c.interval = timingThrottle, d
	})
}

// Debounce writes only after d has passed without another change.
// It replaces any Throttle option.
func Debounce(d time.Duration) Option {
	return optionFunc(func(c *config) {
		c.timing, c.interval = timingDebounce, d
	})
}

// ClearOnDefault controls whether a value equal to the default is removed
// from the URL. Enabled by default.
func ClearOnDefault(clear bool) Option {
	return optionFunc(func(c *config) { c.clearOnDefault = clear })
}

// WithClock sets the clock used for timers.
func WithClock(clock Clock) Option {
	return optionFunc(func(c *config) { c.clock = clock })
}

// Binding is a value kept in sync with one query parameter.
type Binding[T any] struct {
	store  Store
	key    string
	parser Parser[T]
	def    T
	config config

	mu         sync.Mutex
	value      T
	pending    T
	hasPending bool
	timer      Timer
	lastWrite  time.Time
	seq        uint64
	stopped    bool

	extra []Staged

	writeMu  sync.Mutex
	written  uint64
	unsubFn  func()
	watchers []func(T)
}

// Bind creates a binding for key, reading its initial value from store.
func Bind[T any](store Store, key string, parser Parser[T], def T, opts ...Option) *Binding[T] {
	cfg := config{mode: ModeReplace, clearOnDefault: true, clock: RealClock}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.interval <= 0 {
		cfg.timing = timingImmediate
	}

	b := &Binding[T]{
		store:  store,
		key:    key,
		parser: parser,
		def:    def,
		config: cfg,
	}
	b.value = b.read()
	b.unsubFn = store.Subscribe(b.onChange)
	return b
}

// Key returns the query parameter name.
func (b *Binding[T]) Key() string { return b.key }

// Default returns the declared default.
func (b *Binding[T]) Default() T { return b.def }

// Get returns the current value. It reflects Set immediately, before any
// throttled or debounced write reaches the URL.
func (b *Binding[T]) Get() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// IsDefault reports whether the current value equals the default.
func (b *Binding[T]) IsDefault() bool {
	return b.parser.Eq(b.Get(), b.def)
}

// Set updates the value and schedules the URL write.
func (b *Binding[T]) Set(v T) {
	b.SetWith(v)
}

// SetWith is Set with staged writes from other bindings carried in the same
// store update, so the change lands as one history entry.
func (b *Binding[T]) SetWith(v T, staged ...Staged) {
	b.UpdateWith(func(T) T { return v }, staged...)
}

// Update atomically derives the next value from the current one.
func (b *Binding[T]) Update(fn func(T) T) {
	b.UpdateWith(fn)
}

// UpdateWith is Update with staged writes carried along, as in SetWith.
func (b *Binding[T]) UpdateWith(fn func(T) T, staged ...Staged) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	v := fn(b.value)
	b.value = v
	b.extra = append(b.extra, staged...)
	write, seq := b.schedule(v)
	var extra []Staged
	if write {
		extra, b.extra = b.extra, nil
	}
	b.mu.Unlock()

	if write {
		b.write(v, seq, extra)
	}
	b.notify(v)
}

// Assign sets the value without writing it or running watchers. The
// returned Staged carries the URL write; hand it to another binding's
// SetWith or to Commit. A later write on b voids it.
func (b *Binding[T]) Assign(v T) Staged {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return Staged{}
	}
	b.cancelLocked()
	b.value = v
	b.seq++
	seq := b.seq
	return Staged{
		key:   b.key,
		value: b.entry(v),
		live: func() bool {
			b.mu.Lock()
			defer b.mu.Unlock()
			return b.seq == seq && !b.stopped
		},
	}
}

// Reset sets the value back to the default.
func (b *Binding[T]) Reset() {
	b.Set(b.def)
}

// Flush writes any pending value now.
func (b *Binding[T]) Flush() {
	b.mu.Lock()
	if !b.hasPending {
		b.mu.Unlock()
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	v, seq, extra := b.takePending()
	b.mu.Unlock()

	b.write(v, seq, extra)
}

// Pending reports whether a write is waiting on a timer.
func (b *Binding[T]) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasPending
}

// Sync discards any pending write and re-reads the value from the store.
func (b *Binding[T]) Sync() {
	b.mu.Lock()
	b.cancelLocked()
	v := b.read()
	b.value = v
	b.mu.Unlock()

	b.notify(v)
}

// Watch registers fn to run after every local or navigational change.
func (b *Binding[T]) Watch(fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers = append(b.watchers, fn)
}

// Stop cancels the pending timer and detaches from the store.
func (b *Binding[T]) Stop() {
	b.mu.Lock()
	b.cancelLocked()
	b.stopped = true
	unsub := b.unsubFn
	b.unsubFn = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// read parses the store value, falling back to the default.
func (b *Binding[T]) read() T {
	raw, ok := b.store.Get(b.key)
	if !ok {
		return b.def
	}
	v, err := b.parser.Parse(raw)
	if err != nil {
		return b.def
	}
	return v
}

// schedule decides whether v is written now. Caller holds mu.
func (b *Binding[T]) schedule(v T) (bool, uint64) {
	b.seq++
	switch b.config.timing {
	case timingThrottle:
		now := b.config.clock.Now()
		if b.timer == nil && (b.lastWrite.IsZero() || now.Sub(b.lastWrite) >= b.config.interval) {
			b.lastWrite = now
			return true, b.seq
		}
		b.pending, b.hasPending = v, true
		if b.timer == nil {
			wait := b.config.interval - now.Sub(b.lastWrite)
			b.timer = b.config.clock.AfterFunc(wait, b.fire)
		}
		return false, 0
	case timingDebounce:
		if b.timer != nil {
			b.timer.Stop()
		}
		b.pending, b.hasPending = v, true
		b.timer = b.config.clock.AfterFunc(b.config.interval, b.fire)
		return false, 0
	default:
		return true, b.seq
	}
}

func (b *Binding[T]) fire() {
	b.mu.Lock()
	b.timer = nil
	if !b.hasPending || b.stopped {
		b.mu.Unlock()
		return
	}
	v, seq, extra := b.takePending()
	b.mu.Unlock()

	b.write(v, seq, extra)
}

// takePending clears the pending value and its staged writes and returns
// them. Caller holds mu.
func (b *Binding[T]) takePending() (T, uint64, []Staged) {
	v, extra := b.pending, b.extra
	var zero T
	b.pending, b.hasPending, b.extra = zero, false, nil
	b.lastWrite = b.config.clock.Now()
	return v, b.seq, extra
}

// cancelLocked drops the pending write. Caller holds mu.
func (b *Binding[T]) cancelLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	var zero T
	b.pending, b.hasPending, b.extra = zero, false, nil
}

// entry returns the serialized URL value of v, or nil when v is removed
// from the URL.
func (b *Binding[T]) entry(v T) *string {
	s := b.parser.Serialize(v)
	if s == "" || (b.config.clearOnDefault && b.parser.Eq(v, b.def)) {
		return nil
	}
	return &s
}

// stored reports whether the store already holds a value equal to v, so
// writing it would change nothing the parser can tell apart.
func (b *Binding[T]) stored(v T) bool {
	want := b.entry(v)
	raw, ok := b.store.Get(b.key)
	if !ok {
		return want == nil
	}
	if want == nil {
		return false
	}
	cur, err := b.parser.Parse(raw)
	return err == nil && b.parser.Eq(cur, v)
}

// write applies v and any live staged writes to the store as one patch,
// unless a newer write already landed.
func (b *Binding[T]) write(v T, seq uint64, extra []Staged) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if seq < b.written {
		return
	}
	b.written = seq

	p := Patch{}
	for _, st := range extra {
		st.addTo(p)
	}
	if b.stored(v) && unchanged(b.store, p) {
		return
	}
	p[b.key] = b.entry(v)
	b.store.Apply(p, b.config.mode)
}

// unchanged reports whether applying p to store would change nothing.
func unchanged(store Store, p Patch) bool {
	for key, v := range p {
		cur, ok := store.Get(key)
		if v == nil {
			if ok {
				return false
			}
			continue
		}
		if !ok || cur != *v {
			return false
		}
	}
	return true
}

func (b *Binding[T]) onChange(c Change) {
	if !c.Navigation || !c.Has(b.key) {
		return
	}
	b.Sync()
}

func (b *Binding[T]) notify(v T) {
	b.mu.Lock()
	watchers := slices.Clone(b.watchers)
	b.mu.Unlock()
	for _, fn := range watchers {
		fn(v)
	}
}

// Staged is a binding value assigned with Assign whose URL write travels
// with another write.
type Staged struct {
	key   string
	value *string
	live  func() bool
}

func (st Staged) addTo(p Patch) {
	if st.key == "" || !st.live() {
		return
	}
	p[st.key] = st.value
}

// Commit writes staged values to store as one update.
func Commit(store Store, mode HistoryMode, staged ...Staged) {
	p := Patch{}
	for _, st := range staged {
		st.addTo(p)
	}
	if len(p) > 0 {
		store.Apply(p, mode)
	}
}
