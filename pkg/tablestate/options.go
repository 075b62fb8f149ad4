package tablestate

import (
	"log/slog"
	"time"

	"github.com/vango-dev/tabledash/pkg/querystate"
)

// Query keys owned by the controller.
const (
	PageKey    = "page"
	PerPageKey = "perPage"
	SortKey    = "sort"
	FiltersKey = "filters"
)

// Defaults.
const (
	DefaultPage     = 1
	DefaultPerPage  = 10
	DefaultThrottle = 50 * time.Millisecond
	DefaultDebounce = 300 * time.Millisecond
)

// PageSizes are the page sizes offered by the pagination control.
var PageSizes = []int{10, 20, 30, 40, 50}

// FilterMode selects how filters are laid out in the URL.
type FilterMode int

const (
	// FilterModeColumns stores one key per filterable column, e.g.
	// ?name=jo&gender=male,female.
	FilterModeColumns FilterMode = iota

	// FilterModeCodec stores every filter under the "filters" key.
	FilterModeCodec
)

// String returns the config name of the mode.
func (m FilterMode) String() string {
	if m == FilterModeCodec {
		return "codec"
	}
	return "columns"
}

// ParseFilterMode parses "columns" or "codec". Anything else is columns.
func ParseFilterMode(s string) FilterMode {
	if s == "codec" {
		return FilterModeCodec
	}
	return FilterModeColumns
}

type options struct {
	mode           FilterMode
	history        querystate.HistoryMode
	throttle       time.Duration
	debounce       time.Duration
	clearOnDefault bool
	perPage        int
	clock          querystate.Clock
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		mode:           FilterModeColumns,
		history:        querystate.ModeReplace,
		throttle:       DefaultThrottle,
		debounce:       DefaultDebounce,
		clearOnDefault: true,
		perPage:        DefaultPerPage,
		clock:          querystate.RealClock,
	}
}

// Option configures a Controller.
type Option func(*options)

// WithFilterMode sets the filter URL layout.
func WithFilterMode(m FilterMode) Option {
	return func(o *options) { o.mode = m }
}

// WithHistory sets the history mode used by every binding.
func WithHistory(mode querystate.HistoryMode) Option {
	return func(o *options) { o.history = mode }
}

// WithThrottle sets the write interval for page, page size, sort, and
// option filters. Zero writes synchronously.
func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.throttle = d }
}

// WithDebounce sets the quiet period for free-text filters. Zero writes
// synchronously.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithClearOnDefault controls whether default values are removed from the
// URL.
func WithClearOnDefault(clear bool) Option {
	return func(o *options) { o.clearOnDefault = clear }
}

// WithPerPage sets the default page size.
func WithPerPage(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.perPage = n
		}
	}
}

// WithClock sets the clock used by binding timers.
func WithClock(c querystate.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
