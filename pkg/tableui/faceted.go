package tableui

import (
	"slices"

	"github.com/vango-dev/tabledash/pkg/table"
	. "github.com/vango-dev/tabledash/pkg/vdom"
)

// maxBadges is the number of selected labels shown before collapsing to
// "N selected".
const maxBadges = 2

// FacetedFilter renders a popover option list for select columns. Each
// option toggles on click; the summary shows the selection as badges.
func FacetedFilter(col table.Column, selected []string) *VNode {
	title := col.Label
	if title == "" {
		title = col.ID
	}
	return Details(
		Class("faceted-filter"),
		Data("column", col.ID),
		Summary(
			Class("button", "button-outline", "border-dashed"),
			IfElse(len(selected) > 0,
				Span(
					Class("filter-clear"),
					Role("button"),
					TabIndex(0),
					AriaLabel("Clear "+title+" filter"),
					Action(ActionClearFilter),
					Data("column", col.ID),
					"×",
				),
				Span(Class("filter-add"), "+"),
			),
			title,
			When(len(selected) > 0, func() *VNode { return selectedBadges(col, selected) }),
		),
		Div(
			Class("popover"),
			Ul(Class("option-list"), Role("listbox"),
				AriaLabel(title),
				optionItems(col, selected),
			),
			When(len(selected) > 0, func() *VNode {
				return Button(
					Class("menu-item", "text-center"),
					Type("button"),
					Action(ActionClearFilter),
					Data("column", col.ID),
					"Clear filters",
				)
			}),
		),
	)
}

func selectedBadges(col table.Column, selected []string) *VNode {
	if len(selected) > maxBadges {
		return Span(Class("badges"), badge(itoa(len(selected))+" selected"))
	}
	var badges []*VNode
	for _, o := range col.Options {
		if slices.Contains(selected, o.Value) {
			badges = append(badges, badge(o.Label))
		}
	}
	return Span(Class("badges"), badges)
}

func badge(text string) *VNode {
	return Span(Class("badge"), text)
}

func optionItems(col table.Column, selected []string) []*VNode {
	role := "option"
	if col.Variant == table.VariantSelect {
		role = "radio"
	}
	items := make([]*VNode, 0, len(col.Options))
	for _, o := range col.Options {
		isSelected := slices.Contains(selected, o.Value)
		items = append(items, Li(
			Key(o.Value),
			Button(
				Class("option", selectedClass(isSelected)),
				Type("button"),
				Role(role),
				AriaChecked(isSelected),
				Action(ActionToggleOption),
				Data("column", col.ID),
				Data("value", o.Value),
				Span(Class("checkbox"), If(isSelected, Text("✓"))),
				Span(Class("truncate"), o.Label),
				If(o.Count > 0, Span(Class("option-count"), itoa(o.Count))),
			),
		))
	}
	return items
}

func selectedClass(selected bool) string {
	if selected {
		return "selected"
	}
	return ""
}
