package resource

import (
	"log/slog"
	"time"
)

type options struct {
	name       string
	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*options)

// WithName labels the cache in metrics and logs.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithStaleTime sets how long a result is served without refetching.
// Zero means every load fetches.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) { o.staleTime = d }
}

// WithRetry sets the number of retries after a failed fetch and the delay
// between attempts.
func WithRetry(count int, delay time.Duration) Option {
	return func(o *options) {
		o.retryCount = max(count, 0)
		o.retryDelay = delay
	}
}

// WithMetrics records fetch metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// withNow overrides the clock in tests.
func withNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
