// Package tablestate is the single source of truth for an interactive
// data table.
//
// A Controller composes pagination, sorting, and filter state bound to URL
// query parameters through querystate, plus row selection and column
// visibility kept only in memory. It never fetches data itself: Params
// returns the query a fetcher should run.
//
//	store := querystate.NewMemoryStore(r.URL.Query())
//	ctrl, err := tablestate.NewController(store, columns,
//	    tablestate.WithThrottle(50*time.Millisecond),
//	    tablestate.WithDebounce(300*time.Millisecond),
//	)
//	if err != nil { ... }
//	defer ctrl.Close()
//
//	ctrl.UpdateFilter("gender", tablestate.FilterUpdate{Value: table.List("male")})
//	rows := fetch(ctrl.Params()) // page is back to 1
//
// Every filter change resets the page to 1 before the filter itself is
// written, so a fetch keyed off Params never sees a stale page.
package tablestate
