// Package tableui renders a data table as a vdom tree.
//
// Components are pure functions of a View: they read table state and row
// data and never mutate either. Interactive elements carry a data-action
// attribute plus data-column / data-value; the browser sends those back as
// an Event, and Dispatch turns each Event into exactly one controller call.
//
// Loading, error, and empty results render distinctly: skeleton rows while
// loading, an alert row with the error message on failure, and a single
// "No results." row when the fetch resolved with nothing.
package tableui
