package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestCacheStaleTime(t *testing.T) {
	clock := &fakeNow{t: time.Unix(0, 0)}
	var calls atomic.Int32
	cache := NewCache(func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n * 2, nil
	}, WithStaleTime(time.Minute), withNow(clock.now))

	ctx := context.Background()
	v, err := cache.Get(ctx, "a", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = cache.Get(ctx, "a", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.EqualValues(t, 1, calls.Load(), "second get is a cache hit")

	clock.advance(time.Minute)
	_, ok := cache.Peek("a")
	assert.False(t, ok, "entry is stale")

	_, err = cache.Get(ctx, "a", 21)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	cache.Invalidate("a")
	_, ok = cache.Peek("a")
	assert.False(t, ok)
}

func TestCacheZeroStaleTimeAlwaysFetches(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(func(ctx context.Context, _ struct{}) (string, error) {
		calls.Add(1)
		return "x", nil
	})
	for range 3 {
		_, err := cache.Get(context.Background(), "k", struct{}{})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls.Load())
	assert.Zero(t, cache.Len())
}

func TestCacheSharesInFlightFetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	cache := NewCache(func(ctx context.Context, _ int) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "rows", nil
	}, WithStaleTime(time.Minute))

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.Get(context.Background(), "q", 0)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	<-started
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, []string{"rows", "rows", "rows", "rows"}, results)
}

func TestCacheRetry(t *testing.T) {
	flaky := func(failures int32) (Fetcher[int, int], *atomic.Int32) {
		var calls atomic.Int32
		return func(ctx context.Context, _ int) (int, error) {
			if calls.Add(1) <= failures {
				return 0, errors.New("temporary")
			}
			return 7, nil
		}, &calls
	}

	fetch, calls := flaky(2)
	v, err := NewCache(fetch, WithRetry(2, 0)).Get(context.Background(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.EqualValues(t, 3, calls.Load())

	fetch, calls = flaky(2)
	_, err = NewCache(fetch, WithRetry(1, 0)).Get(context.Background(), "k", 0)
	assert.EqualError(t, err, "temporary")
	assert.EqualValues(t, 2, calls.Load())
}

func collect[T any]() (func(Snapshot[T]), func() []Snapshot[T]) {
	var mu sync.Mutex
	var snaps []Snapshot[T]
	return func(s Snapshot[T]) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		}, func() []Snapshot[T] {
			mu.Lock()
			defer mu.Unlock()
			return append([]Snapshot[T](nil), snaps...)
		}
}

func TestResourceLoad(t *testing.T) {
	cache := NewCache(func(ctx context.Context, q string) (string, error) {
		return "rows for " + q, nil
	}, WithStaleTime(time.Minute))
	onChange, snaps := collect[string]()
	res := cache.Resource(onChange)

	assert.Equal(t, Pending, res.Snapshot().State)
	assert.True(t, res.Snapshot().IsLoading())

	res.Load(context.Background(), "page=1", "page=1")
	res.Wait()

	got := snaps()
	require.Len(t, got, 2)
	assert.Equal(t, Loading, got[0].State)
	assert.Equal(t, Ready, got[1].State)
	assert.Equal(t, "rows for page=1", res.Snapshot().Data)

	// A fresh cached key resolves without a Loading step.
	res.Load(context.Background(), "page=1", "page=1")
	got = snaps()
	require.Len(t, got, 3)
	assert.Equal(t, Ready, got[2].State)
}

func TestResourceError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewCache(func(ctx context.Context, _ int) (int, error) { return 0, boom })
	res := cache.Resource(nil)
	res.Load(context.Background(), "k", 1)
	res.Wait()

	s := res.Snapshot()
	assert.Equal(t, Error, s.State)
	assert.ErrorIs(t, s.Err, boom)
	assert.False(t, s.IsLoading())
}

func TestResourceSupersededLoadIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	cache := NewCache(func(ctx context.Context, q string) (string, error) {
		if q == "slow" {
			close(started)
			<-release
		}
		return q, nil
	})
	reg := prometheus.NewRegistry()
	cache.opts.metrics = NewMetrics(reg, "test")

	res := cache.Resource(nil)
	res.Load(context.Background(), "slow", "slow")
	<-started
	res.Load(context.Background(), "fast", "fast")
	res.Wait()

	assert.Equal(t, Snapshot[string]{State: Ready, Key: "fast", Data: "fast"}, res.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(cache.opts.metrics.superseded.WithLabelValues("default")))

	close(release)
	res.Close()
	assert.Equal(t, "fast", res.Snapshot().Data)
}

func TestResourceRefetch(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(func(ctx context.Context, _ int) (int32, error) {
		return calls.Add(1), nil
	}, WithStaleTime(time.Hour))
	res := cache.Resource(nil)

	res.Load(context.Background(), "k", 0)
	res.Wait()
	res.Refetch(context.Background())
	res.Wait()

	assert.EqualValues(t, 2, res.Snapshot().Data)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "tabledash")
	cache := NewCache(func(ctx context.Context, _ int) (int, error) { return 1, nil },
		WithName("people"), WithMetrics(m), WithStaleTime(time.Minute))

	for range 3 {
		_, err := cache.Get(context.Background(), "k", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("people", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("people")))
}
