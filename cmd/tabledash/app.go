package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/tabledash/internal/config"
	"github.com/vango-dev/tabledash/internal/dashboard"
	"github.com/vango-dev/tabledash/internal/resource"
	"github.com/vango-dev/tabledash/pkg/middleware"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/server"
	"github.com/vango-dev/tabledash/pkg/tablestate"
)

const metricsNamespace = "tabledash"

// newLogger builds the process logger from log.level and log.format.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// historyMode maps table.history to a querystate mode.
func historyMode(s string) querystate.HistoryMode {
	if s == "push" {
		return querystate.ModePush
	}
	return querystate.ModeReplace
}

// newServer wires the dashboard behind a live server according to cfg.
func newServer(cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	meta, err := dashboard.LoadMetadata()
	if err != nil {
		return nil, err
	}

	var (
		httpMetrics  *middleware.Metrics
		cacheMetrics *resource.Metrics
		gatherer     prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		httpMetrics = middleware.NewMetrics(
			middleware.WithNamespace(metricsNamespace),
			middleware.WithRegistry(reg),
		)
		cacheMetrics = resource.NewMetrics(reg, metricsNamespace)
		gatherer = reg
	}

	client := dashboard.NewClient(cfg.API.BaseURL,
		dashboard.WithTimeout(cfg.Timeout()),
		dashboard.WithTripletFilters(cfg.Table.FilterMode == "codec"),
		dashboard.WithClientLogger(logger.With("component", "client")),
	)

	dash := dashboard.New(meta, client,
		dashboard.WithOptionsSource(dashboard.OptionsSource{
			Options: meta.Genders,
			Delay:   cfg.OptionsDelay(),
		}),
		dashboard.WithTableOptions(
			tablestate.WithFilterMode(tablestate.ParseFilterMode(cfg.Table.FilterMode)),
			tablestate.WithHistory(historyMode(cfg.Table.History)),
			tablestate.WithThrottle(cfg.Throttle()),
			tablestate.WithDebounce(cfg.Debounce()),
			tablestate.WithClearOnDefault(cfg.ClearOnDefault()),
			tablestate.WithPerPage(cfg.Table.PerPage),
			tablestate.WithLogger(logger.With("component", "tablestate")),
		),
		dashboard.WithCacheOptions(
			resource.WithStaleTime(cfg.StaleTime()),
			resource.WithRetry(cfg.API.Retries, cfg.RetryDelay()),
			resource.WithMetrics(cacheMetrics),
			resource.WithLogger(logger.With("component", "resource")),
		),
		dashboard.WithLogger(logger.With("component", "dashboard")),
	)

	factory := func(ctx context.Context, store querystate.Store, notify func()) (server.LiveSession, error) {
		s, err := dash.NewSession(ctx, store, notify)
		if err != nil {
			// A nil *Session must not become a non-nil LiveSession.
			return nil, err
		}
		return s, nil
	}

	srv := server.New(&server.ServerConfig{
		Address:     cfg.Address(),
		Title:       dash.Title() + " · tabledash",
		MetricsPath: cfg.Metrics.Path,
	}, factory,
		server.WithLogger(logger.With("component", "server")),
		server.WithMetrics(httpMetrics, gatherer),
	)
	return srv, nil
}
