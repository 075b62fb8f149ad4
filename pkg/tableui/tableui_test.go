package tableui

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/render"
	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	"github.com/vango-dev/tabledash/pkg/vdom"
)

func testColumns() table.Columns {
	return table.Columns{
		{ID: SelectColumnID},
		{ID: "name", Label: "Name", Placeholder: "Search...", Variant: table.VariantText,
			Operators: []table.Operator{table.OpLike}, EnableFilter: true, EnableSorting: true},
		{ID: "gender", Label: "Gender", Variant: table.VariantMultiSelect, EnableFilter: true, EnableHiding: true,
			Options: []table.Option{
				{Label: "Male", Value: "male"},
				{Label: "Female", Value: "female"},
				{Label: "Other", Value: "other"},
			}},
		{ID: "age", Label: "Age", Variant: table.VariantNumber, Unit: "yrs",
			Operators: []table.Operator{table.OpGte}, EnableFilter: true},
	}
}

func newController(t *testing.T, query string) *tablestate.Controller {
	t.Helper()
	q, err := url.ParseQuery(query)
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := tablestate.NewController(querystate.NewMemoryStore(q), testColumns(),
		tablestate.WithThrottle(0), tablestate.WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ctrl.Close)
	return ctrl
}

func byTag(n *vdom.VNode, tag string) []*vdom.VNode {
	return n.FindAll(func(v *vdom.VNode) bool { return v.Kind == vdom.KindElement && v.Tag == tag })
}

func byAction(n *vdom.VNode, action string) []*vdom.VNode {
	return n.FindAll(func(v *vdom.VNode) bool { return v.Props[vdom.ActionAttr] == action })
}

func bodyRows(t *testing.T, n *vdom.VNode) []*vdom.VNode {
	t.Helper()
	bodies := byTag(n, "tbody")
	if len(bodies) != 1 {
		t.Fatalf("found %d tbody elements, want 1", len(bodies))
	}
	return byTag(bodies[0], "tr")
}

func htmlOf(t *testing.T, n *vdom.VNode) string {
	t.Helper()
	out, err := render.NewRenderer(render.RendererConfig{}).RenderToString(n)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func isSkeleton(v *vdom.VNode) bool {
	return v.Props["data-slot"] == "skeleton"
}

func TestEmptyResultRendersNoResultsRow(t *testing.T) {
	ctrl := newController(t, "")
	node := DataTable(View{State: ctrl.State()})

	rows := bodyRows(t, node)
	if len(rows) != 1 {
		t.Fatalf("got %d body rows, want 1", len(rows))
	}
	if got := rows[0].TextContent(); got != NoResults {
		t.Errorf("row text = %q, want %q", got, NoResults)
	}
	if td := byTag(rows[0], "td"); td[0].Props["colspan"] != "4" {
		t.Errorf("colspan = %v, want 4", td[0].Props["colspan"])
	}
	if n := len(node.FindAll(isSkeleton)); n != 0 {
		t.Errorf("found %d skeleton blocks, want 0", n)
	}
}

func TestLoadingRendersSkeleton(t *testing.T) {
	ctrl := newController(t, "")
	if err := ctrl.SetColumnVisible("gender", false); err != nil {
		t.Fatal(err)
	}
	node := DataTable(View{State: ctrl.State(), Loading: true, Rows: []table.Row{{"name": "x"}}})

	rows := bodyRows(t, node)
	if len(rows) != SkeletonRows {
		t.Fatalf("got %d skeleton rows, want %d", len(rows), SkeletonRows)
	}
	for i, r := range rows {
		if cells := byTag(r, "td"); len(cells) != 3 {
			t.Errorf("row %d has %d cells, want 3 visible columns", i, len(cells))
		}
	}
	if len(node.FindAll(func(v *vdom.VNode) bool {
		c, _ := v.Props["class"].(string)
		return strings.Contains(c, "pagination-skeleton")
	})) != 1 {
		t.Error("expected pagination skeleton while loading")
	}
}

func TestErrorRow(t *testing.T) {
	ctrl := newController(t, "")
	node := DataTable(View{State: ctrl.State(), Err: errors.New("upstream 502")})

	rows := bodyRows(t, node)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	text := rows[0].TextContent()
	if !strings.Contains(text, "upstream 502") || strings.Contains(text, NoResults) {
		t.Errorf("error row text = %q", text)
	}
	if td := byTag(rows[0], "td"); td[0].Props["role"] != "alert" {
		t.Error("error cell should have role=alert")
	}
}

func TestRowsRender(t *testing.T) {
	ctrl := newController(t, `sort=[{"id":"name","desc":true}]`)
	ctrl.ToggleRowSelected("2")
	v := View{
		State: ctrl.State(),
		Rows: []table.Row{
			{"id": "1", "name": "Ada", "gender": "female", "age": 36},
			{"id": "2", "name": "Alan", "gender": "male", "age": 41},
		},
		PageCount: 1,
	}
	node := DataTable(v)
	rows := bodyRows(t, node)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	cells := byTag(rows[0], "td")
	if cells[1].TextContent() != "Ada" || cells[3].TextContent() != "36" {
		t.Errorf("row 0 cells = %q, %q", cells[1].TextContent(), cells[3].TextContent())
	}
	if rows[1].Props["data-state"] != "selected" || rows[0].Props["data-state"] != nil {
		t.Error("only the selected row should carry data-state")
	}

	th := byTag(node, "th")
	if th[1].Props["aria-sort"] != "descending" {
		t.Errorf("name header aria-sort = %v", th[1].Props["aria-sort"])
	}

	html := htmlOf(t, node)
	if !strings.Contains(html, "1 of 2 row(s) selected.") {
		t.Errorf("missing selection count in %s", html)
	}
	if !strings.Contains(html, "Page 1 of 1") {
		t.Errorf("missing page position in %s", html)
	}
}

func TestPaginationButtons(t *testing.T) {
	ctrl := newController(t, "page=2&perPage=20")
	node := Pagination(View{State: ctrl.State(), PageCount: 2})

	buttons := byAction(node, ActionPage)
	if len(buttons) != 4 {
		t.Fatalf("got %d page buttons, want 4", len(buttons))
	}
	disabled := func(n *vdom.VNode) bool { return n.Props["disabled"] == true }
	want := []bool{false, false, true, true}
	for i, b := range buttons {
		if disabled(b) != want[i] {
			t.Errorf("button %q disabled = %v, want %v", b.Props["data-value"], disabled(b), want[i])
		}
	}
	selected := node.FindAll(func(v *vdom.VNode) bool { return v.Tag == "option" && v.Props["selected"] == true })
	if len(selected) != 1 || selected[0].Props["value"] != "20" {
		t.Errorf("selected page size = %v", selected)
	}
}

func TestToolbarControls(t *testing.T) {
	ctrl := newController(t, "name=jo")
	node := Toolbar(View{State: ctrl.State()})

	inputs := byAction(node, ActionFilter)
	if len(inputs) != 2 {
		t.Fatalf("got %d filter inputs, want text and number", len(inputs))
	}
	if inputs[0].Props["value"] != "jo" || inputs[0].Props["data-operator"] != "like" {
		t.Errorf("text input props = %v", inputs[0].Props)
	}
	if inputs[0].Props["placeholder"] != "Search..." {
		t.Errorf("placeholder = %v", inputs[0].Props["placeholder"])
	}
	if inputs[1].Props["type"] != "number" || inputs[1].Props["data-operator"] != "gte" {
		t.Errorf("number input props = %v", inputs[1].Props)
	}
	if !strings.Contains(htmlOf(t, node), ">yrs<") {
		t.Error("missing unit suffix")
	}
	if len(byAction(node, ActionResetFilters)) != 1 {
		t.Error("reset button should render when filtered")
	}
	if len(byAction(node, ActionToggleOption)) != 3 {
		t.Error("expected one toggle per gender option")
	}

	unfiltered := Toolbar(View{State: newController(t, "").State()})
	if len(byAction(unfiltered, ActionResetFilters)) != 0 {
		t.Error("reset button should not render without filters")
	}
}

func TestToolbarSkeletonWhileOptionsLoad(t *testing.T) {
	ctrl := newController(t, "")
	node := Toolbar(View{State: ctrl.State(), OptionsLoading: true})
	if n := len(node.FindAll(isSkeleton)); n != 4 {
		t.Errorf("toolbar skeleton has %d blocks, want 4", n)
	}
	if len(byAction(node, ActionFilter)) != 0 {
		t.Error("no controls while options load")
	}
}

func TestFacetedBadges(t *testing.T) {
	col := testColumns()[2]
	tests := []struct {
		selected []string
		want     []string
	}{
		{nil, nil},
		{[]string{"female"}, []string{"Female"}},
		{[]string{"female", "male"}, []string{"Male", "Female"}},
		{[]string{"female", "male", "other"}, []string{"3 selected"}},
	}
	for _, tt := range tests {
		node := FacetedFilter(col, tt.selected)
		var got []string
		for _, b := range node.FindAll(func(v *vdom.VNode) bool { return v.Props["class"] == "badge" }) {
			got = append(got, b.TextContent())
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("selected %v: badges = %v, want %v", tt.selected, got, tt.want)
		}
		if clear := byAction(node, ActionClearFilter); (len(clear) > 0) != (len(tt.selected) > 0) {
			t.Errorf("selected %v: %d clear controls", tt.selected, len(clear))
		}
	}
}

func TestFacetedCounts(t *testing.T) {
	col := table.Facet(testColumns()[2], []table.Row{{"gender": "male"}, {"gender": "male"}})
	html := htmlOf(t, FacetedFilter(col, nil))
	if !strings.Contains(html, `<span class="option-count">2</span>`) {
		t.Errorf("missing facet count in %s", html)
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) UpdateFilter(id string, u tablestate.FilterUpdate) error {
	r.calls = append(r.calls, "UpdateFilter:"+id+":"+string(u.Operator)+":"+u.Value.String())
	return nil
}
func (r *recorder) RemoveFilter(id string) error { r.calls = append(r.calls, "RemoveFilter:"+id); return nil }
func (r *recorder) ToggleFilterOption(id, value string) error {
	r.calls = append(r.calls, "ToggleFilterOption:"+id+":"+value)
	return nil
}
func (r *recorder) ResetFilters() { r.calls = append(r.calls, "ResetFilters") }
func (r *recorder) ToggleSort(id string, multi bool) error {
	r.calls = append(r.calls, "ToggleSort:"+id)
	return nil
}
func (r *recorder) SetPage(n int)      { r.calls = append(r.calls, "SetPage:"+itoa(n)) }
func (r *recorder) NextPage()          { r.calls = append(r.calls, "NextPage") }
func (r *recorder) PrevPage()          { r.calls = append(r.calls, "PrevPage") }
func (r *recorder) SetPageSize(n int)  { r.calls = append(r.calls, "SetPageSize:"+itoa(n)) }
func (r *recorder) ToggleRowSelected(id string) {
	r.calls = append(r.calls, "ToggleRowSelected:"+id)
}
func (r *recorder) SelectAllRows(ids []string, selected bool) {
	r.calls = append(r.calls, "SelectAllRows:"+strings.Join(ids, ","))
}
func (r *recorder) ToggleColumnVisible(id string) error {
	r.calls = append(r.calls, "ToggleColumnVisible:"+id)
	return nil
}

func TestDispatchOneCallPerEvent(t *testing.T) {
	v := View{PageCount: 7, Rows: []table.Row{{"id": "a"}, {"id": "b"}}}
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Action: ActionFilter, Column: "name", Operator: "like", Value: "jo"}, "UpdateFilter:name:like:jo"},
		{Event{Action: ActionToggleOption, Column: "gender", Value: "male"}, "ToggleFilterOption:gender:male"},
		{Event{Action: ActionClearFilter, Column: "gender"}, "RemoveFilter:gender"},
		{Event{Action: ActionResetFilters}, "ResetFilters"},
		{Event{Action: ActionSort, Column: "name"}, "ToggleSort:name"},
		{Event{Action: ActionPage, Value: PageFirst}, "SetPage:1"},
		{Event{Action: ActionPage, Value: PageNext}, "NextPage"},
		{Event{Action: ActionPage, Value: PagePrev}, "PrevPage"},
		{Event{Action: ActionPage, Value: PageLast}, "SetPage:7"},
		{Event{Action: ActionPage, Value: "3"}, "SetPage:3"},
		{Event{Action: ActionPerPage, Value: "40"}, "SetPageSize:40"},
		{Event{Action: ActionSelectRow, Value: "a"}, "ToggleRowSelected:a"},
		{Event{Action: ActionSelectAll, Checked: true}, "SelectAllRows:a,b"},
		{Event{Action: ActionToggleColumn, Column: "gender"}, "ToggleColumnVisible:gender"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Action+"/"+tt.ev.Value, func(t *testing.T) {
			r := &recorder{}
			if err := Dispatch(r, tt.ev, v); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if len(r.calls) != 1 || r.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", r.calls, tt.want)
			}
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	r := &recorder{}
	for _, ev := range []Event{
		{Action: "explode"},
		{Action: ActionPerPage, Value: "many"},
		{Action: ActionPage, Value: "later"},
		{Action: ActionFilter, Column: "name", Operator: "contains", Value: "x"},
	} {
		if err := Dispatch(r, ev, View{}); err == nil {
			t.Errorf("Dispatch(%+v) succeeded, want error", ev)
		}
	}
	if len(r.calls) != 0 {
		t.Errorf("failed events reached the controller: %v", r.calls)
	}
	if err := Dispatch(r, Event{Action: "explode"}, View{}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestDispatchFilterResetsPage(t *testing.T) {
	ctrl := newController(t, "page=3&name=a")
	ev := Event{Action: ActionToggleOption, Column: "gender", Value: "male"}
	if err := Dispatch(ctrl, ev, View{}); err != nil {
		t.Fatal(err)
	}
	if got := ctrl.Params().Page; got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
}
