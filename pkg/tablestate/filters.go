package tablestate

import (
	"fmt"
	"slices"

	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/table"
)

// Filters returns the active filters. In column mode they follow column
// order; in codec mode they keep the order they were added in.
func (c *Controller) Filters() []table.FilterEntry {
	if c.filters != nil {
		return slices.Clone(c.filters.Get())
	}
	var out []table.FilterEntry
	for _, f := range c.columnFilters {
		if e, ok := f.entry(); ok {
			out = append(out, e)
		}
	}
	return out
}

// Filter returns the active filter for column id.
func (c *Controller) Filter(id string) (table.FilterEntry, bool) {
	for _, f := range c.Filters() {
		if f.ID == id {
			return f, true
		}
	}
	return table.FilterEntry{}, false
}

// IsFiltered reports whether any filter is active.
func (c *Controller) IsFiltered() bool {
	return len(c.Filters()) > 0
}

// UpdateFilter sets the filter on column id and returns to page 1.
// An empty value removes the filter.
func (c *Controller) UpdateFilter(id string, u FilterUpdate) error {
	col, err := c.filterColumn(id)
	if err != nil {
		return err
	}
	op := u.Operator
	if op == "" {
		op = col.Operator()
	}
	if !col.AllowsOperator(op) {
		return fmt.Errorf("%w: %q on %q", ErrOperatorNotAllowed, op, id)
	}
	// One URL key per column has no room for the operator, so only the
	// column's primary operator survives a round trip.
	if c.filters == nil && op != col.Operator() {
		return fmt.Errorf("%w: %q on %q in column mode, only %q", ErrOperatorNotAllowed, op, id, col.Operator())
	}
	value := c.sanitize(col, u.Value)

	c.logger.Debug("filter updated", "column", id, "operator", op, "value", value.String())

	reset := c.page.Assign(DefaultPage)
	if c.filters != nil {
		c.filters.UpdateWith(func(cur []table.FilterEntry) []table.FilterEntry {
			return upsert(cur, table.FilterEntry{ID: id, Operator: op, Value: value})
		}, reset)
		return nil
	}
	f := c.columnFilter(id)
	if f.list != nil {
		f.list.SetWith(value.Items(), reset)
	} else {
		f.text.SetWith(value.String(), reset)
	}
	return nil
}

// SetFilters replaces every filter at once and returns to page 1. Entries
// with empty values are dropped.
func (c *Controller) SetFilters(entries []table.FilterEntry) error {
	next := make([]table.FilterEntry, 0, len(entries))
	for _, e := range entries {
		col, err := c.filterColumn(e.ID)
		if err != nil {
			return err
		}
		if e.Operator == "" {
			e.Operator = col.Operator()
		}
		if !col.AllowsOperator(e.Operator) || (c.filters == nil && e.Operator != col.Operator()) {
			return fmt.Errorf("%w: %q on %q", ErrOperatorNotAllowed, e.Operator, e.ID)
		}
		e.Value = c.sanitize(col, e.Value)
		next = upsert(next, e)
	}

	reset := c.page.Assign(DefaultPage)
	if c.filters != nil {
		c.filters.SetWith(next, reset)
		return nil
	}
	staged := []querystate.Staged{reset}
	for _, f := range c.columnFilters {
		i := slices.IndexFunc(next, func(e table.FilterEntry) bool { return e.ID == f.col.ID })
		switch {
		case i < 0:
			staged = append(staged, f.assignDefault())
		case f.list != nil:
			staged = append(staged, f.list.Assign(next[i].Value.Items()))
		default:
			staged = append(staged, f.text.Assign(next[i].Value.String()))
		}
	}
	querystate.Commit(c.store, c.opts.history, staged...)
	c.changed()
	return nil
}

// RemoveFilter clears the filter on column id and returns to page 1.
func (c *Controller) RemoveFilter(id string) error {
	col, err := c.filterColumn(id)
	if err != nil {
		return err
	}
	empty := table.Scalar("")
	if col.Variant.HasOptions() {
		empty = table.List()
	}
	return c.UpdateFilter(id, FilterUpdate{Value: empty})
}

// ToggleFilterOption adds value to an option filter, or removes it when
// already selected. Removing the last value removes the filter.
func (c *Controller) ToggleFilterOption(id, value string) error {
	col, err := c.filterColumn(id)
	if err != nil {
		return err
	}
	if !col.Variant.HasOptions() {
		return fmt.Errorf("tablestate: column %q has no options", id)
	}
	var current []string
	if f, ok := c.Filter(id); ok {
		current = f.Value.Items()
	}
	var next []string
	switch {
	case slices.Contains(current, value):
		next = slices.DeleteFunc(current, func(v string) bool { return v == value })
	case col.Variant == table.VariantSelect:
		next = []string{value}
	default:
		next = append(current, value)
	}
	return c.UpdateFilter(id, FilterUpdate{Value: table.List(next...)})
}

// ResetFilters removes every filter and returns to page 1.
func (c *Controller) ResetFilters() {
	reset := c.page.Assign(DefaultPage)
	if c.filters != nil {
		c.filters.SetWith(c.filters.Default(), reset)
		return
	}
	staged := []querystate.Staged{reset}
	for _, f := range c.columnFilters {
		staged = append(staged, f.assignDefault())
	}
	querystate.Commit(c.store, c.opts.history, staged...)
	c.changed()
}

func (c *Controller) filterColumn(id string) (table.Column, error) {
	col, ok := c.columns.Find(id)
	if !ok {
		return table.Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	if !col.Filterable() {
		return table.Column{}, fmt.Errorf("%w: %q", ErrNotFilterable, id)
	}
	return col, nil
}

func (c *Controller) columnFilter(id string) *columnFilter {
	for _, f := range c.columnFilters {
		if f.col.ID == id {
			return f
		}
	}
	return nil
}

// sanitize normalizes a value to the column's shape: option columns hold
// deduplicated lists of declared options, the rest hold scalars.
func (c *Controller) sanitize(col table.Column, v table.FilterValue) table.FilterValue {
	if !col.Variant.HasOptions() {
		return table.Scalar(v.String())
	}
	var items []string
	for _, item := range v.Items() {
		if item == "" || slices.Contains(items, item) {
			continue
		}
		if len(col.Options) > 0 && !col.HasOption(item) {
			continue
		}
		items = append(items, item)
	}
	return table.List(items...)
}

// upsert replaces the entry with f's id in place, appends it, or removes
// it when f's value is empty.
func upsert(cur []table.FilterEntry, f table.FilterEntry) []table.FilterEntry {
	out := slices.Clone(cur)
	i := slices.IndexFunc(out, func(e table.FilterEntry) bool { return e.ID == f.ID })
	switch {
	case f.Value.IsEmpty() && i >= 0:
		return slices.Delete(out, i, i+1)
	case f.Value.IsEmpty():
		return out
	case i >= 0:
		out[i] = f
		return out
	default:
		return append(out, f)
	}
}
