package table

import (
	"fmt"
	"slices"
)

// Option is a label/value pair for select filters.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`

	// Count is the faceted number of visible rows with this value.
	Count int `json:"-" yaml:"-"`
}

// Row is one opaque record from the remote API.
type Row map[string]any

// CellFunc renders a cell's display text.
type CellFunc func(row Row) string

// Column describes one table column.
type Column struct {
	ID          string
	Accessor    string
	Label       string
	Placeholder string
	Variant     Variant
	Operators   []Operator
	Options     []Option
	Unit        string

	EnableFilter  bool
	EnableSorting bool
	EnableHiding  bool

	// Cell overrides the default text rendering.
	Cell CellFunc
}

// Filterable reports whether the column renders a filter control.
func (c Column) Filterable() bool {
	return c.EnableFilter && c.Variant.Valid()
}

// Operator returns the column's primary operator.
func (c Column) Operator() Operator {
	if len(c.Operators) > 0 {
		return c.Operators[0]
	}
	return DefaultOperator(c.Variant)
}

// AllowsOperator reports whether op may be used on this column.
func (c Column) AllowsOperator(op Operator) bool {
	if !op.Valid() {
		return false
	}
	if len(c.Operators) == 0 {
		return true
	}
	return slices.Contains(c.Operators, op)
}

// HasOption reports whether value is in the column's option list.
func (c Column) HasOption(value string) bool {
	for _, o := range c.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// OptionLabel returns the label for value, or value itself.
func (c Column) OptionLabel(value string) string {
	for _, o := range c.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Value returns the display text of the column in row.
func (c Column) Value(row Row) string {
	if c.Cell != nil {
		return c.Cell(row)
	}
	return c.Raw(row)
}

// Raw returns the accessor's field in row as text, ignoring Cell. Option
// values are matched against it.
func (c Column) Raw(row Row) string {
	key := c.Accessor
	if key == "" {
		key = c.ID
	}
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Columns is an ordered column set.
type Columns []Column

// Find returns the column with id.
func (cs Columns) Find(id string) (Column, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// IDs returns every column id in order.
func (cs Columns) IDs() []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

// Filterable returns the columns that render filter controls.
func (cs Columns) Filterable() Columns {
	var out Columns
	for _, c := range cs {
		if c.Filterable() {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that ids are unique and non-empty.
func (cs Columns) Validate() error {
	seen := make(map[string]bool, len(cs))
	for i, c := range cs {
		if c.ID == "" {
			return fmt.Errorf("table: column %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("table: duplicate column id %q", c.ID)
		}
		seen[c.ID] = true
		for _, op := range c.Operators {
			if !op.Valid() {
				return fmt.Errorf("table: column %q: unknown operator %q", c.ID, op)
			}
		}
	}
	return nil
}

// Facet returns a copy of c whose options carry the number of rows holding
// each value.
func Facet(c Column, rows []Row) Column {
	if len(c.Options) == 0 {
		return c
	}
	counts := make(map[string]int)
	for _, r := range rows {
		counts[c.Raw(r)]++
	}
	c.Options = slices.Clone(c.Options)
	for i := range c.Options {
		c.Options[i].Count = counts[c.Options[i].Value]
	}
	return c
}
