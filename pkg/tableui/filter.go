package tableui

import (
	"strconv"

	"github.com/vango-dev/tabledash/pkg/table"
	. "github.com/vango-dev/tabledash/pkg/vdom"
)

func itoa(n int) string { return strconv.Itoa(n) }

// Toolbar renders one filter control per filterable column, the reset
// button, and the view options menu. While options load it renders
// ToolbarSkeleton instead.
func Toolbar(v View) *VNode {
	if v.OptionsLoading {
		return ToolbarSkeleton()
	}
	var controls []*VNode
	for _, col := range v.columns().Filterable() {
		controls = append(controls, FilterControl(col, v))
	}
	return Div(
		Class("toolbar"),
		Role("toolbar"),
		AriaOrientation("horizontal"),
		Div(Class("toolbar-filters"),
			controls,
			If(v.State.IsFiltered(), Button(
				Class("button", "button-outline", "border-dashed"),
				Type("button"),
				AriaLabel("Reset filters"),
				Action(ActionResetFilters),
				"Reset",
			)),
		),
		Div(Class("toolbar-actions"), ViewOptions(v)),
	)
}

// FilterControl renders the control for col's variant.
func FilterControl(col table.Column, v View) *VNode {
	current, _ := v.State.Filter(col.ID)

	switch col.Variant {
	case table.VariantText:
		return textInput(col, "text", current.Value.String())
	case table.VariantNumber, table.VariantRange:
		return numberInput(col, current.Value.String())
	case table.VariantDate, table.VariantDateRange:
		return textInput(col, "date", current.Value.String())
	case table.VariantBoolean:
		return booleanSelect(col, current.Value.String())
	case table.VariantSelect, table.VariantMultiSelect:
		return FacetedFilter(col, current.Value.Items())
	case table.VariantNone:
		return nil
	}
	return nil
}

func placeholder(col table.Column) string {
	if col.Placeholder != "" {
		return col.Placeholder
	}
	return col.Label
}

func filterAttrs(col table.Column) []Attr {
	return []Attr{
		Action(ActionFilter),
		Data("column", col.ID),
		Data("operator", string(col.Operator())),
		AriaLabel("Filter " + col.Label),
	}
}

func textInput(col table.Column, inputType, value string) *VNode {
	return Input(
		Class("input", "filter-input"),
		Type(inputType),
		Name(col.ID),
		Placeholder(placeholder(col)),
		Value(value),
		Autocomplete("off"),
		filterAttrs(col),
	)
}

func numberInput(col table.Column, value string) *VNode {
	return Div(
		Class("filter-number"),
		Input(
			Class("input", "filter-input", unitClass(col)),
			Type("number"),
			InputMode("numeric"),
			Name(col.ID),
			Placeholder(placeholder(col)),
			Value(value),
			filterAttrs(col),
		),
		If(col.Unit != "", Span(Class("filter-unit"), col.Unit)),
	)
}

func booleanSelect(col table.Column, value string) *VNode {
	choice := func(label, val string) *VNode {
		return Option(Value(val), SelectedIf(value == val), label)
	}
	return Select(
		Class("select", "filter-input"),
		Name(col.ID),
		filterAttrs(col),
		choice(col.Label, ""),
		choice("Yes", "true"),
		choice("No", "false"),
	)
}

// ViewOptions renders the column visibility menu for hideable columns.
func ViewOptions(v View) *VNode {
	var items []*VNode
	for _, col := range v.columns() {
		if !col.EnableHiding {
			continue
		}
		visible := v.State.IsVisible(col.ID)
		items = append(items, Li(
			Key(col.ID),
			Button(
				Class("menu-item"),
				Type("button"),
				Role("menuitemcheckbox"),
				AriaChecked(visible),
				Action(ActionToggleColumn),
				Data("column", col.ID),
				col.Label,
			),
		))
	}
	if len(items) == 0 {
		return nil
	}
	return Details(
		Class("view-options"),
		Summary(Class("button", "button-outline"), AriaLabel("Toggle columns"), "View"),
		Ul(Class("menu"), Role("menu"), items),
	)
}

func unitClass(col table.Column) string {
	if col.Unit != "" {
		return "has-unit"
	}
	return ""
}
