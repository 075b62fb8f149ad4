package tablestate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/tabledash/pkg/codec"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/table"
)

var (
	// ErrUnknownColumn is returned for column ids the controller was not
	// built with.
	ErrUnknownColumn = errors.New("tablestate: unknown column")

	// ErrNotFilterable is returned when filtering a column without a filter.
	ErrNotFilterable = errors.New("tablestate: column is not filterable")

	// ErrNotSortable is returned when sorting a column with sorting disabled.
	ErrNotSortable = errors.New("tablestate: column is not sortable")

	// ErrNotHideable is returned when hiding a column with hiding disabled.
	ErrNotHideable = errors.New("tablestate: column cannot be hidden")

	// ErrOperatorNotAllowed is returned for an operator the column or the
	// filter mode cannot hold.
	ErrOperatorNotAllowed = errors.New("tablestate: operator not allowed")
)

// FilterUpdate is a change to one column's filter. A zero Operator uses the
// column's primary operator. An empty Value removes the filter.
type FilterUpdate struct {
	Operator table.Operator
	Value    table.FilterValue
}

// columnFilter is the per-column binding used in FilterModeColumns.
type columnFilter struct {
	col  table.Column
	text *querystate.Binding[string]
	list *querystate.Binding[[]string]
}

func (f *columnFilter) entry() (table.FilterEntry, bool) {
	e := table.FilterEntry{ID: f.col.ID, Operator: f.col.Operator()}
	if f.list != nil {
		items := f.list.Get()
		if len(items) == 0 {
			return e, false
		}
		e.Value = table.List(items...)
		return e, true
	}
	s := f.text.Get()
	if s == "" {
		return e, false
	}
	e.Value = table.Scalar(s)
	return e, true
}

func (f *columnFilter) assignDefault() querystate.Staged {
	if f.list != nil {
		return f.list.Assign(f.list.Default())
	}
	return f.text.Assign(f.text.Default())
}

func (f *columnFilter) stop() {
	if f.list != nil {
		f.list.Stop()
		return
	}
	f.text.Stop()
}

func (f *columnFilter) flush() {
	if f.list != nil {
		f.list.Flush()
		return
	}
	f.text.Flush()
}

// Controller owns the interactive state of one table.
type Controller struct {
	store   querystate.Store
	columns table.Columns
	opts    options
	logger  *slog.Logger

	page    *querystate.Binding[int]
	perPage *querystate.Binding[int]
	sort    *querystate.Binding[[]table.SortEntry]

	// Exactly one of these is used, depending on the filter mode.
	filters       *querystate.Binding[[]table.FilterEntry]
	columnFilters []*columnFilter

	mu       sync.Mutex
	selected map[string]bool
	hidden   map[string]bool
	watchers []func()
}

// NewController binds a controller for columns to store.
func NewController(store querystate.Store, columns table.Columns, opts ...Option) (*Controller, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default().With("component", "tablestate")
	}

	c := &Controller{
		store:    store,
		columns:  columns,
		opts:     o,
		logger:   logger,
		selected: make(map[string]bool),
		hidden:   make(map[string]bool),
	}

	throttled := c.bindingOptions(querystate.Throttle(o.throttle))
	c.page = querystate.Bind(store, PageKey, querystate.PositiveInt, DefaultPage, throttled...)
	c.perPage = querystate.Bind(store, PerPageKey, querystate.PositiveInt, o.perPage, throttled...)
	c.sort = querystate.Bind(store, SortKey, codec.SortParser(c.sortableIDs()), nil, throttled...)
	c.page.Watch(func(int) { c.changed() })
	c.perPage.Watch(func(int) { c.changed() })
	c.sort.Watch(func([]table.SortEntry) { c.changed() })

	switch o.mode {
	case FilterModeCodec:
		c.filters = querystate.Bind(store, FiltersKey, codec.FiltersParser(columns.Filterable()), nil, throttled...)
		c.filters.Watch(func([]table.FilterEntry) { c.changed() })
	default:
		if err := c.bindColumnFilters(store); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Controller) bindingOptions(timing querystate.Option) []querystate.Option {
	return []querystate.Option{
		timing,
		querystate.History(c.opts.history),
		querystate.ClearOnDefault(c.opts.clearOnDefault),
		querystate.WithClock(c.opts.clock),
	}
}

func (c *Controller) bindColumnFilters(store querystate.Store) error {
	reserved := []string{PageKey, PerPageKey, SortKey, FiltersKey}
	for _, col := range c.columns.Filterable() {
		if slices.Contains(reserved, col.ID) {
			return fmt.Errorf("tablestate: column id %q collides with a reserved query key", col.ID)
		}
		f := &columnFilter{col: col}
		if col.Variant.HasOptions() {
			f.list = querystate.Bind(store, col.ID, optionList(col), nil,
				c.bindingOptions(querystate.Throttle(c.opts.throttle))...)
			f.list.Watch(func([]string) { c.changed() })
		} else {
			f.text = querystate.Bind(store, col.ID, querystate.String, "",
				c.bindingOptions(querystate.Debounce(c.opts.debounce))...)
			f.text.Watch(func(string) { c.changed() })
		}
		c.columnFilters = append(c.columnFilters, f)
	}
	return nil
}

// optionList parses comma arrays, skipping values outside col's options.
func optionList(col table.Column) querystate.Parser[[]string] {
	item := querystate.Funcs[string]{
		ParseFunc: func(s string) (string, error) {
			if len(col.Options) > 0 && !col.HasOption(s) {
				return "", fmt.Errorf("%w: %q is not an option of %q", querystate.ErrInvalid, s, col.ID)
			}
			return s, nil
		},
		SerializeFunc: func(s string) string { return s },
		EqFunc:        func(a, b string) bool { return a == b },
	}
	return querystate.ArrayOf(item, ",")
}

func (c *Controller) sortableIDs() []string {
	var ids []string
	for _, col := range c.columns {
		if col.EnableSorting {
			ids = append(ids, col.ID)
		}
	}
	return ids
}

// Columns returns every column, visible or not.
func (c *Controller) Columns() table.Columns { return c.columns }

// FilterMode returns the filter URL layout.
func (c *Controller) FilterMode() FilterMode { return c.opts.mode }

// OnChange registers fn to run after any state change, including changes
// that arrive through navigation.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, fn)
}

func (c *Controller) changed() {
	c.mu.Lock()
	watchers := slices.Clone(c.watchers)
	c.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// Flush writes every pending binding value to the store now.
func (c *Controller) Flush() {
	c.page.Flush()
	c.perPage.Flush()
	c.sort.Flush()
	if c.filters != nil {
		c.filters.Flush()
	}
	for _, f := range c.columnFilters {
		f.flush()
	}
}

// Close cancels pending writes and detaches from the store.
func (c *Controller) Close() {
	c.page.Stop()
	c.perPage.Stop()
	c.sort.Stop()
	if c.filters != nil {
		c.filters.Stop()
	}
	for _, f := range c.columnFilters {
		f.stop()
	}
}
