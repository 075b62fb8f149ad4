package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/tabledash/internal/resource"
	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
)

// Page is one fetched page of people.
type Page struct {
	Rows      []table.Row
	Total     int
	PageCount int
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithOptionsSource replaces the gender options source.
func WithOptionsSource(src OptionsSource) Option {
	return func(d *Dashboard) { d.source = src }
}

// WithTableOptions sets the options every session controller is built with.
func WithTableOptions(opts ...tablestate.Option) Option {
	return func(d *Dashboard) { d.tableOpts = append(d.tableOpts, opts...) }
}

// WithCacheOptions sets options shared by the page, total, and options
// caches.
func WithCacheOptions(opts ...resource.Option) Option {
	return func(d *Dashboard) { d.cacheOpts = append(d.cacheOpts, opts...) }
}

// WithLogger sets the dashboard logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dashboard) { d.logger = l }
}

// Dashboard owns the caches shared by every live session.
type Dashboard struct {
	meta      Metadata
	client    *Client
	source    OptionsSource
	tableOpts []tablestate.Option
	cacheOpts []resource.Option
	logger    *slog.Logger

	pages   *resource.Cache[table.Query, Page]
	totals  *resource.Cache[[]table.FilterEntry, int]
	genders *resource.Cache[struct{}, []table.Option]
}

// New creates a dashboard reading people through client.
func New(meta Metadata, client *Client, opts ...Option) *Dashboard {
	d := &Dashboard{
		meta:   meta,
		client: client,
		source: OptionsSource{Options: meta.Genders},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default().With("component", "dashboard")
	}

	d.pages = resource.NewCache(d.fetchPage, d.cacheOptions("pages")...)
	d.totals = resource.NewCache(d.client.Count, d.cacheOptions("totals")...)
	d.genders = resource.NewCache(d.source.Fetch, d.cacheOptions("genders")...)
	return d
}

func (d *Dashboard) cacheOptions(name string) []resource.Option {
	opts := append([]resource.Option(nil), d.cacheOpts...)
	return append(opts, resource.WithName(name))
}

// Title is the page title.
func (d *Dashboard) Title() string { return "People" }

// Columns returns the current column definitions, with gender options if
// they have loaded.
func (d *Dashboard) Columns() table.Columns {
	opts, _ := d.genders.Peek(gendersKey)
	return Columns(d.meta, opts)
}

// fetchPage loads the rows and the filtered total concurrently.
func (d *Dashboard) fetchPage(ctx context.Context, q table.Query) (Page, error) {
	var (
		rows  []table.Row
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = d.client.Rows(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = d.totals.Get(gctx, filtersKey(q.Filters), q.Filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}
	return Page{
		Rows:      rows,
		Total:     total,
		PageCount: table.PageCount(total, q.PerPage),
	}, nil
}

func filtersKey(filters []table.FilterEntry) string {
	return table.Query{Filters: filters}.Key()
}
