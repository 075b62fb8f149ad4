package tablestate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vango-dev/tabledash/pkg/table"
)

// Row selection and column visibility are never written to the URL.

// SetRowSelected selects or deselects row id.
func (c *Controller) SetRowSelected(id string, selected bool) {
	c.mu.Lock()
	if selected {
		c.selected[id] = true
	} else {
		delete(c.selected, id)
	}
	c.mu.Unlock()
	c.changed()
}

// ToggleRowSelected flips the selection of row id.
func (c *Controller) ToggleRowSelected(id string) {
	c.SetRowSelected(id, !c.IsRowSelected(id))
}

// IsRowSelected reports whether row id is selected.
func (c *Controller) IsRowSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected[id]
}

// SelectAllRows selects or deselects every id in ids.
func (c *Controller) SelectAllRows(ids []string, selected bool) {
	c.mu.Lock()
	for _, id := range ids {
		if selected {
			c.selected[id] = true
		} else {
			delete(c.selected, id)
		}
	}
	c.mu.Unlock()
	c.changed()
}

// ClearSelection deselects every row.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	clear(c.selected)
	c.mu.Unlock()
	c.changed()
}

// SelectedRowIDs returns the selected row ids, sorted.
func (c *Controller) SelectedRowIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.selected))
}

// SetColumnVisible shows or hides column id.
func (c *Controller) SetColumnVisible(id string, visible bool) error {
	col, ok := c.columns.Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	if !visible && !col.EnableHiding {
		return fmt.Errorf("%w: %q", ErrNotHideable, id)
	}
	c.mu.Lock()
	if visible {
		delete(c.hidden, id)
	} else {
		c.hidden[id] = true
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// ToggleColumnVisible flips the visibility of column id.
func (c *Controller) ToggleColumnVisible(id string) error {
	return c.SetColumnVisible(id, !c.IsColumnVisible(id))
}

// IsColumnVisible reports whether column id is shown.
func (c *Controller) IsColumnVisible(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.hidden[id]
}

// VisibleColumns returns the shown columns in order.
func (c *Controller) VisibleColumns() table.Columns {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out table.Columns
	for _, col := range c.columns {
		if !c.hidden[col.ID] {
			out = append(out, col)
		}
	}
	return out
}
