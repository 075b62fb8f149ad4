package tableui

import (
	"github.com/vango-dev/tabledash/pkg/tablestate"
	. "github.com/vango-dev/tabledash/pkg/vdom"
)

// Pagination renders the selected-row count, the page size select, the
// page position, and the navigation buttons.
func Pagination(v View) *VNode {
	p := v.State.Pagination
	page := p.Page()
	pageCount := max(v.PageCount, 1)
	canPrev := page > 1
	canNext := page < v.PageCount

	return Div(
		Class("pagination"),
		Div(Class("selection-count"),
			Textf("%d of %d row(s) selected.", len(v.State.Selected), len(v.Rows)),
		),
		Div(Class("pagination-controls"),
			Label(Class("page-size"),
				Span("Rows per page"),
				Select(
					Class("select"),
					Name(tablestate.PerPageKey),
					Action(ActionPerPage),
					Range(tablestate.PageSizes, func(n int, _ int) *VNode {
						return Option(Value(itoa(n)), SelectedIf(n == p.PageSize), itoa(n))
					}),
				),
			),
			Div(Class("page-position"), AriaLive("polite"),
				Textf("Page %d of %d", page, pageCount),
			),
			Nav(Class("page-buttons"), AriaLabel("Pagination"),
				pageButton("Go to first page", PageFirst, "«", !canPrev),
				pageButton("Go to previous page", PagePrev, "‹", !canPrev),
				pageButton("Go to next page", PageNext, "›", !canNext),
				pageButton("Go to last page", PageLast, "»", !canNext),
			),
		),
	)
}

func pageButton(label, target, glyph string, disabled bool) *VNode {
	return Button(
		Class("button", "button-outline", "page-button"),
		Type("button"),
		AriaLabel(label),
		Action(ActionPage),
		Data("value", target),
		DisabledIf(disabled),
		glyph,
	)
}
