package tablestate

import (
	"maps"
	"slices"

	"github.com/vango-dev/tabledash/pkg/table"
)

// State is an immutable snapshot of a Controller.
type State struct {
	Pagination Pagination
	Sorting    []table.SortEntry
	Filters    []table.FilterEntry
	Selected   []string
	Columns    table.Columns
	Visible    table.Columns
}

// IsFiltered reports whether any filter is active.
func (s State) IsFiltered() bool { return len(s.Filters) > 0 }

// Filter returns the filter for column id.
func (s State) Filter(id string) (table.FilterEntry, bool) {
	for _, f := range s.Filters {
		if f.ID == id {
			return f, true
		}
	}
	return table.FilterEntry{}, false
}

// SortDirection returns "asc", "desc", or "" for column id.
func (s State) SortDirection(id string) string {
	for _, e := range s.Sorting {
		if e.ID == id {
			return e.Direction()
		}
	}
	return ""
}

// IsSelected reports whether row id is selected.
func (s State) IsSelected(id string) bool {
	_, ok := slices.BinarySearch(s.Selected, id)
	return ok
}

// IsVisible reports whether column id is shown.
func (s State) IsVisible(id string) bool {
	_, ok := s.Visible.Find(id)
	return ok
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	selected := slices.Sorted(maps.Keys(c.selected))
	c.mu.Unlock()
	return State{
		Pagination: c.Pagination(),
		Sorting:    c.Sorting(),
		Filters:    c.Filters(),
		Selected:   selected,
		Columns:    c.columns,
		Visible:    c.VisibleColumns(),
	}
}

// Params returns the query a data fetcher should run for the current state.
func (c *Controller) Params() table.Query {
	p := c.Pagination()
	return table.Query{
		Page:    p.Page(),
		PerPage: p.PageSize,
		Sort:    c.Sorting(),
		Filters: c.Filters(),
	}
}
