package tablestate

import (
	"fmt"
	"slices"

	"github.com/vango-dev/tabledash/pkg/table"
)

// Sorting returns the current sort entries in priority order.
func (c *Controller) Sorting() []table.SortEntry {
	return slices.Clone(c.sort.Get())
}

// SortDirection returns "asc", "desc", or "" for column id.
func (c *Controller) SortDirection(id string) string {
	for _, s := range c.sort.Get() {
		if s.ID == id {
			return s.Direction()
		}
	}
	return ""
}

// ToggleSort advances column id through unsorted, ascending, descending and
// back to unsorted. Without multi the column becomes the only sort key.
func (c *Controller) ToggleSort(id string, multi bool) error {
	if err := c.checkSortable(id); err != nil {
		return err
	}
	c.sort.Update(func(cur []table.SortEntry) []table.SortEntry {
		i := slices.IndexFunc(cur, func(s table.SortEntry) bool { return s.ID == id })
		var next *table.SortEntry
		switch {
		case i < 0:
			next = &table.SortEntry{ID: id}
		case !cur[i].Desc:
			next = &table.SortEntry{ID: id, Desc: true}
		}

		if !multi {
			if next == nil {
				return nil
			}
			return []table.SortEntry{*next}
		}
		out := slices.Clone(cur)
		switch {
		case i < 0:
			out = append(out, *next)
		case next == nil:
			out = slices.Delete(out, i, i+1)
		default:
			out[i] = *next
		}
		return out
	})
	return nil
}

// SetSorting replaces the sort entries.
func (c *Controller) SetSorting(entries []table.SortEntry) error {
	for _, e := range entries {
		if err := c.checkSortable(e.ID); err != nil {
			return err
		}
	}
	c.sort.Set(slices.Clone(entries))
	return nil
}

// ClearSort removes column id from the sort. An empty id clears all.
func (c *Controller) ClearSort(id string) {
	if id == "" {
		c.sort.Reset()
		return
	}
	c.sort.Update(func(cur []table.SortEntry) []table.SortEntry {
		return slices.DeleteFunc(slices.Clone(cur), func(s table.SortEntry) bool { return s.ID == id })
	})
}

func (c *Controller) checkSortable(id string) error {
	col, ok := c.columns.Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	if !col.EnableSorting {
		return fmt.Errorf("%w: %q", ErrNotSortable, id)
	}
	return nil
}
