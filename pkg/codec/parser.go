package codec

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/table"
)

type filtersParser struct {
	columns table.Columns
}

// FiltersParser binds a filter sequence to one query key as a JSON array
// of {id, operator, value}. Unknown columns and disallowed operators fail
// the parse; option values outside a select column's options are skipped.
func FiltersParser(columns table.Columns) querystate.Parser[[]table.FilterEntry] {
	return filtersParser{columns: columns}
}

func (p filtersParser) Parse(s string) ([]table.FilterEntry, error) {
	var raw []table.FilterEntry
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", querystate.ErrInvalid, err)
	}
	out := make([]table.FilterEntry, 0, len(raw))
	for _, f := range raw {
		col, ok := p.columns.Find(f.ID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter column %q", querystate.ErrInvalid, f.ID)
		}
		if !col.AllowsOperator(f.Operator) {
			return nil, fmt.Errorf("%w: operator %q not allowed on %q", querystate.ErrInvalid, f.Operator, f.ID)
		}
		if entry, keep := sanitize(col, f); keep {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (filtersParser) Serialize(v []table.FilterEntry) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (filtersParser) Eq(a, b []table.FilterEntry) bool { return FiltersEqual(a, b) }

type sortParser struct {
	ids []string
}

// SortParser binds a sort sequence to one query key as a JSON array of
// {id, desc}. Ids outside ids fail the parse. Repeated ids keep the first.
func SortParser(ids []string) querystate.Parser[[]table.SortEntry] {
	return sortParser{ids: ids}
}

func (p sortParser) Parse(s string) ([]table.SortEntry, error) {
	var raw []table.SortEntry
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", querystate.ErrInvalid, err)
	}
	out := make([]table.SortEntry, 0, len(raw))
	for _, e := range raw {
		if !slices.Contains(p.ids, e.ID) {
			return nil, fmt.Errorf("%w: unknown sort column %q", querystate.ErrInvalid, e.ID)
		}
		if slices.ContainsFunc(out, func(o table.SortEntry) bool { return o.ID == e.ID }) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (sortParser) Serialize(v []table.SortEntry) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (sortParser) Eq(a, b []table.SortEntry) bool { return SortEqual(a, b) }

// FiltersEqual reports whether a and b hold the same entries in any order.
func FiltersEqual(a, b []table.FilterEntry) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, fa := range a {
		for j, fb := range b {
			if !used[j] && fa.Equal(fb) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// SortEqual reports whether a and b hold the same entries in the same order.
func SortEqual(a, b []table.SortEntry) bool {
	return slices.Equal(a, b)
}
