package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/codec"
	"github.com/vango-dev/tabledash/pkg/table"
)

const tracerName = "github.com/vango-dev/tabledash/internal/dashboard"

// maxBody bounds a users response.
const maxBody = 8 << 20

// Client reads people from the users API.
type Client struct {
	baseURL  string
	http     *http.Client
	tracer   trace.Tracer
	logger   *slog.Logger
	triplets bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithTripletFilters also sends every filter as
// filters[i][column|operator|value] parameters.
func WithTripletFilters(on bool) ClientOption {
	return func(c *Client) { c.triplets = on }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "users-client")
	}
	return c
}

// Rows fetches one page of people for q.
func (c *Client) Rows(ctx context.Context, q table.Query) ([]table.Row, error) {
	ctx, span := c.tracer.Start(ctx, "users.rows", trace.WithAttributes(
		attribute.Int("page", q.Page),
		attribute.Int("per_page", q.PerPage),
		attribute.Int("filters", len(q.Filters)),
	))
	defer span.End()

	params := c.filterParams(q.Filters)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.PerPage))
	if len(q.Sort) > 0 {
		params.Set("sortBy", q.Sort[0].ID)
		params.Set("order", q.Sort[0].Direction())
	}
	rows, err := c.get(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rows, nil
}

// Count returns the number of people matching filters. The API has no
// count endpoint, so this reads the unpaged result and measures it.
func (c *Client) Count(ctx context.Context, filters []table.FilterEntry) (int, error) {
	ctx, span := c.tracer.Start(ctx, "users.count", trace.WithAttributes(
		attribute.Int("filters", len(filters)),
	))
	defer span.End()

	rows, err := c.get(ctx, c.filterParams(filters))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("total", len(rows)))
	return len(rows), nil
}

// filterParams maps each filter to a parameter named after its column.
func (c *Client) filterParams(filters []table.FilterEntry) url.Values {
	params := url.Values{}
	for _, f := range filters {
		if f.Value.IsEmpty() {
			continue
		}
		params.Set(f.ID, f.Value.String())
	}
	if c.triplets {
		codec.AddTo(params, filters)
	}
	return params
}

func (c *Client) get(ctx context.Context, params url.Values) ([]table.Row, error) {
	u := c.baseURL + "/users"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.New("T120").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New("T120").Wrap(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("users request",
		"url", u,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.New("T120").Wrap(err)
	}
	// mockapi answers an empty filtered result with 404 "Not found".
	if resp.StatusCode == http.StatusNotFound {
		return []table.Row{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("T120").
			WithDetail(fmt.Sprintf("GET %s: %s", u, resp.Status))
	}

	var rows []table.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errors.New("T121").Wrap(err)
	}
	if rows == nil {
		rows = []table.Row{}
	}
	return rows, nil
}
