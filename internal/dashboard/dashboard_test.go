package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/render"
	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	"github.com/vango-dev/tabledash/pkg/tableui"
)

// fakeAPI mimics the mockapi users endpoint: substring name match, exact
// gender match, page/limit slicing, and 404 for an empty result.
type fakeAPI struct {
	people []table.Row
	status int

	mu       sync.Mutex
	requests []url.Values
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{}
	for i := 1; i <= n; i++ {
		gender := "female"
		if i%2 == 0 {
			gender = "male"
		}
		f.people = append(f.people, table.Row{
			"id":     strconv.Itoa(i),
			"name":   fmt.Sprintf("Person %02d", i),
			"gender": gender,
		})
	}
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.requests = append(f.requests, q)
	f.mu.Unlock()

	if f.status != 0 {
		http.Error(w, "boom", f.status)
		return
	}
	if r.URL.Path != "/users" {
		http.NotFound(w, r)
		return
	}

	name := strings.ToLower(q.Get("name"))
	gender := q.Get("gender")
	var out []table.Row
	for _, p := range f.people {
		if name != "" && !strings.Contains(strings.ToLower(p["name"].(string)), name) {
			continue
		}
		if gender != "" && p["gender"] != gender {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		http.Error(w, `"Not found"`, http.StatusNotFound)
		return
	}
	if q.Has("page") {
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		start := min((page-1)*limit, len(out))
		out = out[start:min(start+limit, len(out))]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeAPI) lastRequest(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newServer(t *testing.T, api *fakeAPI) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadMetadata(t *testing.T) {
	meta, err := LoadMetadata()
	require.NoError(t, err)
	require.Len(t, meta.Genders, 2)

	cols := Columns(meta, nil)
	assert.Equal(t, []string{"select", "name", "gender"}, cols.IDs())

	name, ok := cols.Find("name")
	require.True(t, ok)
	assert.Equal(t, table.VariantText, name.Variant)
	assert.Equal(t, "Search...", name.Placeholder)
	assert.True(t, name.EnableFilter)
	assert.True(t, name.EnableSorting)

	gender, ok := cols.Find("gender")
	require.True(t, ok)
	assert.Equal(t, table.VariantSelect, gender.Variant)
	assert.Empty(t, gender.Options, "options are absent until loaded")
	assert.Equal(t, "Male", gender.Value(table.Row{"gender": "male"}))

	gender, _ = Columns(meta, meta.Genders).Find("gender")
	assert.Equal(t, "Female", gender.OptionLabel("female"))
}

func TestParseMetadataRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad yaml", yaml: "columns: [\n"},
		{name: "unknown cell", yaml: "columns:\n  - id: a\n    cell: shout\n"},
		{name: "filter without variant", yaml: "columns:\n  - id: a\n    enableFilter: true\n"},
		{name: "duplicate id", yaml: "columns:\n  - id: a\n  - id: a\n"},
		{name: "unknown variant", yaml: "columns:\n  - id: a\n    variant: slider\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "T103")
		})
	}
}

func TestClientRows(t *testing.T) {
	api := newFakeAPI(25)
	srv := newServer(t, api)
	c := NewClient(srv.URL)

	rows, err := c.Rows(context.Background(), table.Query{
		Page:    2,
		PerPage: 10,
		Sort:    []table.SortEntry{{ID: "name", Desc: true}},
		Filters: []table.FilterEntry{{ID: "gender", Operator: table.OpEq, Value: table.List("male")}},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	q := api.lastRequest(t)
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "male", q.Get("gender"))
	assert.Equal(t, "name", q.Get("sortBy"))
	assert.Equal(t, "desc", q.Get("order"))
	assert.False(t, q.Has("filters[0][column]"))
}

func TestClientCount(t *testing.T) {
	api := newFakeAPI(25)
	srv := newServer(t, api)
	c := NewClient(srv.URL + "/")

	n, err := c.Count(context.Background(), []table.FilterEntry{
		{ID: "name", Operator: table.OpLike, Value: table.Scalar("person 1")},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	q := api.lastRequest(t)
	assert.False(t, q.Has("page"), "count reads the unpaged result")
	assert.Equal(t, "person 1", q.Get("name"))

	n, err = c.Count(context.Background(), []table.FilterEntry{
		{ID: "name", Operator: table.OpLike, Value: table.Scalar("nobody")},
	})
	require.NoError(t, err)
	assert.Zero(t, n, "404 is an empty result")
}

func TestClientTripletFilters(t *testing.T) {
	api := newFakeAPI(5)
	srv := newServer(t, api)
	c := NewClient(srv.URL, WithTripletFilters(true))

	_, err := c.Count(context.Background(), []table.FilterEntry{
		{ID: "name", Operator: table.OpLike, Value: table.Scalar("person")},
	})
	require.NoError(t, err)

	q := api.lastRequest(t)
	assert.Equal(t, "name", q.Get("filters[0][column]"))
	assert.Equal(t, "like", q.Get("filters[0][operator]"))
	assert.Equal(t, "person", q.Get("filters[0][value]"))
}

func TestClientErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		api := newFakeAPI(1)
		api.status = http.StatusInternalServerError
		srv := newServer(t, api)

		_, err := NewClient(srv.URL).Rows(context.Background(), table.Query{Page: 1, PerPage: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "T120")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"}`))
		}))
		t.Cleanup(srv.Close)

		_, err := NewClient(srv.URL).Count(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "T121")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		u := srv.URL
		srv.Close()

		_, err := NewClient(u).Count(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "T120")
	})
}

func TestOptionsSourceCancel(t *testing.T) {
	src := OptionsSource{Options: []table.Option{{Label: "A", Value: "a"}}, Delay: 1 << 40}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, struct{}{})
	assert.ErrorIs(t, err, context.Canceled)

	src.Delay = 0
	opts, err := src.Fetch(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, src.Options, opts)
}

func newTestSession(t *testing.T, api *fakeAPI, initial url.Values) (*Session, *querystate.MemoryStore) {
	t.Helper()
	srv := newServer(t, api)
	meta, err := LoadMetadata()
	require.NoError(t, err)

	d := New(meta, NewClient(srv.URL),
		WithTableOptions(tablestate.WithThrottle(0), tablestate.WithDebounce(0)),
	)
	store := querystate.NewMemoryStore(initial)
	s, err := d.NewSession(context.Background(), store, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	s.Wait()
	return s, store
}

func TestSessionLoadsFromURL(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(25), url.Values{"page": {"2"}})

	v := s.View()
	assert.False(t, v.Loading)
	assert.False(t, v.OptionsLoading)
	require.NoError(t, v.Err)
	assert.Len(t, v.Rows, 10)
	assert.Equal(t, "Person 11", v.Rows[0]["name"])
	assert.Equal(t, 25, v.Total)
	assert.Equal(t, 3, v.PageCount)

	gender, ok := v.Columns.Find("gender")
	require.True(t, ok)
	require.Len(t, gender.Options, 2)
	assert.Equal(t, 5, gender.Options[0].Count, "male rows on page 2")
	assert.Equal(t, 5, gender.Options[1].Count, "female rows on page 2")
}

func TestSessionFilterResetsPage(t *testing.T) {
	s, store := newTestSession(t, newFakeAPI(25), url.Values{"page": {"3"}})

	require.NoError(t, s.Handle(tableui.Event{
		Action: tableui.ActionFilter, Column: "name", Value: "Person 0",
	}))
	s.Wait()

	name, _ := store.Get("name")
	assert.Equal(t, "Person 0", name)
	_, hasPage := store.Get("page")
	assert.False(t, hasPage, "page returns to its default")

	v := s.View()
	assert.Equal(t, 1, v.State.Pagination.Page())
	assert.Len(t, v.Rows, 9)
	assert.Equal(t, 9, v.Total)
	assert.Equal(t, 1, v.PageCount)
}

func TestSessionClampsPageBeyondRange(t *testing.T) {
	s, store := newTestSession(t, newFakeAPI(25), url.Values{"page": {"9"}})

	page, _ := store.Get("page")
	assert.Equal(t, "3", page)

	v := s.View()
	assert.Equal(t, 3, v.State.Pagination.Page())
	assert.Equal(t, 3, v.PageCount)
	require.Len(t, v.Rows, 5)
	assert.Equal(t, "Person 21", v.Rows[0]["name"])
}

func TestSessionToggleOption(t *testing.T) {
	s, store := newTestSession(t, newFakeAPI(25), nil)

	require.NoError(t, s.Handle(tableui.Event{
		Action: tableui.ActionToggleOption, Column: "gender", Value: "male",
	}))
	s.Wait()

	gender, _ := store.Get("gender")
	assert.Equal(t, "male", gender)
	v := s.View()
	assert.Equal(t, 12, v.Total)
	assert.Equal(t, 2, v.PageCount)
	for _, r := range v.Rows {
		assert.Equal(t, "male", r["gender"])
	}
}

func TestSessionRejectsUnknownOption(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(5), url.Values{"gender": {"other"}})

	_, filtered := s.View().State.Filter("gender")
	assert.False(t, filtered, "values outside the options are dropped")
}

func TestSessionFetchError(t *testing.T) {
	api := newFakeAPI(5)
	api.status = http.StatusBadGateway
	s, _ := newTestSession(t, api, nil)

	v := s.View()
	assert.False(t, v.Loading)
	require.Error(t, v.Err)
	assert.Empty(t, v.Rows)
}

func TestSessionRender(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(3), nil)

	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(s.Render())
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>People</h1>")
	assert.Contains(t, html, "Person 01")
	assert.Contains(t, html, "Female", "gender cells are capitalized")
}
