package table

import (
	"encoding/json"
	"slices"
	"strings"
)

// FilterValue is a scalar string or a list of strings.
type FilterValue struct {
	scalar string
	list   []string
	isList bool
}

// Scalar creates a single-valued filter value.
func Scalar(s string) FilterValue { return FilterValue{scalar: s} }

// List creates a multi-valued filter value.
func List(items ...string) FilterValue {
	return FilterValue{list: slices.Clone(items), isList: true}
}

// IsList reports whether the value holds a list.
func (v FilterValue) IsList() bool { return v.isList }

// String returns the scalar, or the list joined with commas.
func (v FilterValue) String() string {
	if v.isList {
		return strings.Join(v.list, ",")
	}
	return v.scalar
}

// Items returns the list items, or the scalar as a one-item list.
func (v FilterValue) Items() []string {
	if v.isList {
		return slices.Clone(v.list)
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// IsEmpty reports whether the value filters nothing.
func (v FilterValue) IsEmpty() bool {
	if v.isList {
		return len(v.list) == 0
	}
	return v.scalar == ""
}

// Equal compares two values. List order is ignored.
func (v FilterValue) Equal(o FilterValue) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.scalar == o.scalar
	}
	a, b := slices.Clone(v.list), slices.Clone(o.list)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// MarshalJSON encodes a string or an array of strings.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts a string or an array of strings.
func (v *FilterValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*v = List(list...)
	return nil
}

// FilterEntry is one active column filter.
type FilterEntry struct {
	ID       string      `json:"id"`
	Operator Operator    `json:"operator"`
	Value    FilterValue `json:"value"`
}

// Equal compares id, operator and value.
func (f FilterEntry) Equal(o FilterEntry) bool {
	return f.ID == o.ID && f.Operator == o.Operator && f.Value.Equal(o.Value)
}

// SortEntry is one sort key.
type SortEntry struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// Direction returns "asc" or "desc".
func (s SortEntry) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

// Query is the parameter set a data-fetching collaborator consumes.
type Query struct {
	Page    int
	PerPage int
	Sort    []SortEntry
	Filters []FilterEntry
}

// Filter returns the filter for column id.
func (q Query) Filter(id string) (FilterEntry, bool) {
	for _, f := range q.Filters {
		if f.ID == id {
			return f, true
		}
	}
	return FilterEntry{}, false
}

// Key returns a stable identity for caching fetches of q.
func (q Query) Key() string {
	b, _ := json.Marshal(q)
	return string(b)
}

// PageCount returns ceil(total / perPage), and 0 when either is not positive.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
