package tableui

import (
	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	. "github.com/vango-dev/tabledash/pkg/vdom"
)

// SelectColumnID is the column id rendered as row-selection checkboxes.
const SelectColumnID = "select"

// SkeletonRows is the number of placeholder rows shown while loading.
const SkeletonRows = 10

// View is everything the components need to render one table.
type View struct {
	State tablestate.State

	// Columns overrides State.Columns, e.g. with faceted option counts.
	Columns table.Columns

	Rows      []table.Row
	RowID     func(table.Row) string
	Total     int
	PageCount int

	Loading        bool
	OptionsLoading bool
	Err            error
}

func (v View) columns() table.Columns {
	if v.Columns != nil {
		return v.Columns
	}
	return v.State.Columns
}

func (v View) visible() table.Columns {
	var out table.Columns
	for _, c := range v.columns() {
		if v.State.IsVisible(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (v View) rowID(r table.Row, i int) string {
	if v.RowID != nil {
		return v.RowID(r)
	}
	if id, ok := r["id"]; ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return itoa(i)
}

// Render returns the toolbar, table, and pagination together.
func Render(v View) *VNode {
	return Div(
		ID("data-table"),
		Class("data-table"),
		AriaBusy(v.Loading),
		Toolbar(v),
		DataTable(v),
	)
}
