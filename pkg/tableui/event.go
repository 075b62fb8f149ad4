package tableui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
)

// Actions carried in data-action attributes.
const (
	ActionFilter       = "filter"
	ActionToggleOption = "toggle-option"
	ActionClearFilter  = "clear-filter"
	ActionResetFilters = "reset-filters"
	ActionSort         = "sort"
	ActionPage         = "page"
	ActionPerPage      = "per-page"
	ActionSelectRow    = "select-row"
	ActionSelectAll    = "select-all"
	ActionToggleColumn = "toggle-column"
)

// Page targets for ActionPage. Any other value is a 1-based page number.
const (
	PageFirst = "first"
	PagePrev  = "prev"
	PageNext  = "next"
	PageLast  = "last"
)

// ErrUnknownAction is returned by Dispatch for unrecognized actions.
var ErrUnknownAction = errors.New("tableui: unknown action")

// Event is one user interaction reported by the browser.
type Event struct {
	Action   string `json:"action"`
	Column   string `json:"column,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Multi    bool   `json:"multi,omitempty"`
}

// Controller is the subset of tablestate.Controller that events drive.
type Controller interface {
	UpdateFilter(id string, u tablestate.FilterUpdate) error
	RemoveFilter(id string) error
	ToggleFilterOption(id, value string) error
	ResetFilters()
	ToggleSort(id string, multi bool) error
	SetPage(n int)
	NextPage()
	PrevPage()
	SetPageSize(n int)
	ToggleRowSelected(id string)
	SelectAllRows(ids []string, selected bool)
	ToggleColumnVisible(id string) error
}

var _ Controller = (*tablestate.Controller)(nil)

// Dispatch applies ev to ctrl with exactly one controller call. v supplies
// the rendered rows and page count the event refers to.
func Dispatch(ctrl Controller, ev Event, v View) error {
	switch ev.Action {
	case ActionFilter:
		u := tablestate.FilterUpdate{Value: table.Scalar(ev.Value)}
		if ev.Operator != "" {
			op, err := table.ParseOperator(ev.Operator)
			if err != nil {
				return err
			}
			u.Operator = op
		}
		return ctrl.UpdateFilter(ev.Column, u)
	case ActionToggleOption:
		return ctrl.ToggleFilterOption(ev.Column, ev.Value)
	case ActionClearFilter:
		return ctrl.RemoveFilter(ev.Column)
	case ActionResetFilters:
		ctrl.ResetFilters()
		return nil
	case ActionSort:
		return ctrl.ToggleSort(ev.Column, ev.Multi)
	case ActionPage:
		return dispatchPage(ctrl, ev.Value, v.PageCount)
	case ActionPerPage:
		n, err := strconv.Atoi(ev.Value)
		if err != nil {
			return fmt.Errorf("tableui: page size %q: %w", ev.Value, err)
		}
		ctrl.SetPageSize(n)
		return nil
	case ActionSelectRow:
		ctrl.ToggleRowSelected(ev.Value)
		return nil
	case ActionSelectAll:
		ids := make([]string, len(v.Rows))
		for i, r := range v.Rows {
			ids[i] = v.rowID(r, i)
		}
		ctrl.SelectAllRows(ids, ev.Checked)
		return nil
	case ActionToggleColumn:
		return ctrl.ToggleColumnVisible(ev.Column)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, ev.Action)
}

func dispatchPage(ctrl Controller, target string, pageCount int) error {
	switch target {
	case PageFirst:
		ctrl.SetPage(1)
	case PagePrev:
		ctrl.PrevPage()
	case PageNext:
		ctrl.NextPage()
	case PageLast:
		ctrl.SetPage(max(pageCount, 1))
	default:
		n, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("tableui: page %q: %w", target, err)
		}
		ctrl.SetPage(n)
	}
	return nil
}
