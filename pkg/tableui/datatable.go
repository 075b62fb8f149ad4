package tableui

import (
	"github.com/vango-dev/tabledash/pkg/table"
	. "github.com/vango-dev/tabledash/pkg/vdom"
)

// NoResults is the text of the empty-result row.
const NoResults = "No results."

// DataTable renders the header, body, and pagination.
func DataTable(v View) *VNode {
	cols := v.visible()
	return Div(
		Class("data-table-body"),
		Div(Class("data-table-frame"),
			Table(
				Thead(headerRow(v, cols)),
				Tbody(BodyRows(v, cols)),
			),
		),
		Div(Class("data-table-footer"),
			IfElse(v.Loading, PaginationSkeleton(), Pagination(v)),
		),
	)
}

func headerRow(v View, cols table.Columns) *VNode {
	return Tr(Range(cols, func(col table.Column, _ int) *VNode {
		return Th(Key(col.ID), Scope("col"), AriaSort(ariaSort(v.State.SortDirection(col.ID))), header(v, col))
	}))
}

func header(v View, col table.Column) *VNode {
	if col.ID == SelectColumnID {
		all := len(v.Rows) > 0
		for i, r := range v.Rows {
			if !v.State.IsSelected(v.rowID(r, i)) {
				all = false
				break
			}
		}
		return Input(
			Type("checkbox"),
			AriaLabel("Select all"),
			CheckedIf(all),
			DisabledIf(v.Loading || len(v.Rows) == 0),
			Action(ActionSelectAll),
		)
	}
	if !col.EnableSorting {
		return Text(col.Label)
	}
	dir := v.State.SortDirection(col.ID)
	return Button(
		Class("sort-button"),
		Type("button"),
		Action(ActionSort),
		Data("column", col.ID),
		AriaLabel("Sort by "+col.Label),
		col.Label,
		Span(Class("sort-indicator"), Data("dir", dir), sortGlyph(dir)),
	)
}

func ariaSort(dir string) string {
	switch dir {
	case "asc":
		return "ascending"
	case "desc":
		return "descending"
	}
	return "none"
}

func sortGlyph(dir string) string {
	switch dir {
	case "asc":
		return "↑"
	case "desc":
		return "↓"
	}
	return "↕"
}

// BodyRows returns the body rows for the current fetch state.
func BodyRows(v View, cols table.Columns) []*VNode {
	switch {
	case v.Loading:
		return SkeletonBody(len(cols))
	case v.Err != nil:
		return []*VNode{Tr(
			Class("error-row"),
			Td(ColSpan(len(cols)), Role("alert"), Class("h-24", "text-center"),
				"Failed to load results: "+v.Err.Error()),
		)}
	case len(v.Rows) == 0:
		return []*VNode{Tr(
			Td(ColSpan(len(cols)), Class("h-24", "text-center"), NoResults),
		)}
	}
	rows := make([]*VNode, 0, len(v.Rows))
	for i, r := range v.Rows {
		id := v.rowID(r, i)
		selected := v.State.IsSelected(id)
		rows = append(rows, Tr(
			Key(id),
			stateAttr(selected),
			Range(cols, func(col table.Column, _ int) *VNode {
				return Td(Key(col.ID), cell(col, r, id, selected))
			}),
		))
	}
	return rows
}

func stateAttr(selected bool) Attr {
	if !selected {
		return Attr{}
	}
	return Data("state", "selected")
}

func cell(col table.Column, r table.Row, id string, selected bool) *VNode {
	if col.ID == SelectColumnID {
		return Input(
			Type("checkbox"),
			AriaLabel("Select row"),
			CheckedIf(selected),
			Action(ActionSelectRow),
			Data("value", id),
		)
	}
	return Text(col.Value(r))
}
