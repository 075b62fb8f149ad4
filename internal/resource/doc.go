// Package resource caches asynchronous fetches keyed by query.
//
// A Cache runs one fetch per key at a time (concurrent callers share the
// result through singleflight), keeps results fresh for a stale time, and
// retries failed fetches a fixed number of times.
//
// A Resource follows one changing key, typically the table's current query,
// and moves through Pending, Loading, Ready and Error. Starting a new load
// supersedes the previous one: its result is dropped even if it arrives
// later.
//
//	cache := resource.NewCache(fetchPeople,
//	    resource.WithStaleTime(30*time.Second),
//	    resource.WithRetry(2, 200*time.Millisecond),
//	)
//	res := cache.Resource(func(s resource.Snapshot[People]) { rerender(s) })
//	res.Load(ctx, query.Key(), query)
package resource
