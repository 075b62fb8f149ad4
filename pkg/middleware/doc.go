// Package middleware provides the HTTP middleware the table server runs
// behind: Prometheus metrics, OpenTelemetry request spans, and structured
// request logging. Every middleware has the chi signature
// func(http.Handler) http.Handler.
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(
//	    middleware.WithNamespace("tabledash"),
//	    middleware.WithRegistry(reg),
//	)
//	r.Use(m.Handler)
//
// Collected series:
//   - tabledash_http_requests_total: requests by route, method, and status
//   - tabledash_http_request_duration_seconds: request latency by route
//   - tabledash_http_requests_in_flight: requests being served
//   - tabledash_live_events_total: live table events by action and status
//   - tabledash_live_event_duration_seconds: event handling latency
//   - tabledash_live_event_errors_total: failed events by error category
//   - tabledash_live_sessions: open live sessions
//   - tabledash_live_patches_sent_total: render and URL frames sent
//   - tabledash_live_websocket_errors_total: WebSocket failures by type
//
// The route label is the chi route pattern, never the raw path, so label
// cardinality stays bounded.
//
// # OpenTelemetry
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("tabledash"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// The request context carries the span, so outgoing calls made with
// r.Context() join the trace.
package middleware
