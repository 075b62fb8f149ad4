// Package querystate binds pieces of state to URL query parameters.
//
// The URL is modeled as an explicit Store with get/apply/subscribe so the
// bindings work the same against a live browser session and in tests:
//
//	store := querystate.NewMemoryStore(r.URL.Query())
//	page := querystate.Bind(store, "page", querystate.PositiveInt, 1,
//	    querystate.Throttle(50*time.Millisecond))
//	page.Set(3) // ?page=3, replacing the current history entry
//
// Each binding owns one timing policy, either Throttle or Debounce, and at
// most one pending timer. A newer Set supersedes a pending write. Values
// equal to the default are removed from the URL unless ClearOnDefault(false)
// is given. Writes replace the current history entry unless Push is given.
//
// Unparsable or missing parameters silently fall back to the default.
package querystate
