package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/tabledash/pkg/middleware"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	"github.com/vango-dev/tabledash/pkg/tableui"
	"github.com/vango-dev/tabledash/pkg/vdom"
)

// fakeLive renders the current page parameter and writes it on "page"
// events.
type fakeLive struct {
	store  querystate.Store
	notify func()

	mu     sync.Mutex
	closed bool
}

func (f *fakeLive) Render() *vdom.VNode {
	p, _ := f.store.Get("page")
	return vdom.P(vdom.ID("page"), "page="+p)
}

func (f *fakeLive) Handle(ev tableui.Event) error {
	switch ev.Action {
	case tableui.ActionPage:
		f.store.Apply(querystate.Patch{}.SetValue("page", ev.Value), querystate.ModePush)
		return nil
	case tableui.ActionSort:
		return fmt.Errorf("sort %q: %w", ev.Column, tablestate.ErrUnknownColumn)
	case "explode":
		panic("boom")
	}
	return tableui.ErrUnknownAction
}

func (f *fakeLive) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeLive) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeApp struct {
	mu       sync.Mutex
	sessions []*fakeLive
}

func (a *fakeApp) factory(_ context.Context, store querystate.Store, notify func()) (LiveSession, error) {
	f := &fakeLive{store: store, notify: notify}
	a.mu.Lock()
	a.sessions = append(a.sessions, f)
	a.mu.Unlock()
	return f, nil
}

func (a *fakeApp) last() *fakeLive {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[len(a.sessions)-1]
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server, *fakeApp) {
	t.Helper()
	app := &fakeApp{}
	cfg := DefaultServerConfig()
	cfg.SessionConfig.HeartbeatInterval = time.Hour
	srv := New(cfg, app.factory, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, app
}

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func sendFrame(t *testing.T, conn *websocket.Conn, f Frame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(f))
}

func TestServePageRendersQuery(t *testing.T) {
	_, ts, app := newTestServer(t)

	resp, body := get(t, ts.URL+"/?page=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `data-live="/live"`)
	assert.Contains(t, body, `<div id="app">`)
	assert.Contains(t, body, `page=2`)
	assert.Contains(t, body, "new WebSocket", "client script is inlined")
	assert.True(t, app.last().isClosed(), "page session is released after render")
}

func TestHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(middleware.WithRegistry(reg))
	_, ts, _ := newTestServer(t, WithMetrics(m, reg))

	get(t, ts.URL+"/healthz", nil)
	resp, body := get(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `tabledash_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestThinClientETag(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+thinClientPath, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, thinClientJS, body)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp, _ = get(t, ts.URL+thinClientPath, http.Header{"If-None-Match": {`W/` + etag}})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestLiveSessionEventWritesURLBeforeRender(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	conn := dial(t, ts, "?page=1")

	hello := readFrame(t, conn)
	assert.Equal(t, FrameHello, hello.Type)
	assert.NotEmpty(t, hello.Session)
	require.Eventually(t, func() bool { return srv.Sessions().Get(hello.Session) != nil }, time.Second, 10*time.Millisecond)

	first := readFrame(t, conn)
	assert.Equal(t, FrameRender, first.Type)
	assert.Contains(t, first.HTML, "page=1")

	sendFrame(t, conn, Frame{Type: FrameEvent, Event: &tableui.Event{Action: tableui.ActionPage, Value: "3"}})

	url := readFrame(t, conn)
	assert.Equal(t, FrameURL, url.Type)
	assert.Equal(t, "?page=3", url.Search)
	assert.Equal(t, "push", url.Mode)

	render := readFrame(t, conn)
	assert.Equal(t, FrameRender, render.Type)
	assert.Contains(t, render.HTML, "page=3")
}

func TestLiveSessionNavigateIsNotEchoed(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dial(t, ts, "?page=4")
	readFrame(t, conn) // hello
	readFrame(t, conn) // render

	sendFrame(t, conn, Frame{Type: FrameNavigate, Search: "?page=2"})

	f := readFrame(t, conn)
	assert.Equal(t, FrameRender, f.Type, "navigation produces no url frame")
	assert.Contains(t, f.HTML, "page=2")
}

func TestLiveSessionErrors(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dial(t, ts, "")
	readFrame(t, conn) // hello
	readFrame(t, conn) // render

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, "T160", f.Code)

	sendFrame(t, conn, Frame{Type: FrameEvent, Event: &tableui.Event{Action: tableui.ActionSort, Column: "age"}})
	f = readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, "T140", f.Code)

	sendFrame(t, conn, Frame{Type: FrameEvent, Event: &tableui.Event{Action: "explode"}})
	f = readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, "T160", f.Code, "a panicking handler does not kill the session")

	sendFrame(t, conn, Frame{Type: FramePing})
	assert.Equal(t, FramePong, readFrame(t, conn).Type)
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, ts, app := newTestServer(t)
	conn := dial(t, ts, "")
	readFrame(t, conn)
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))

	require.Eventually(t, func() bool { return srv.Sessions().Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, app.last().isClosed())

	stats := srv.Sessions().Stats()
	assert.EqualValues(t, 1, stats.TotalCreated)
	assert.EqualValues(t, 1, stats.TotalClosed)
	assert.Equal(t, 1, stats.Peak)
}

func TestMaxSessions(t *testing.T) {
	app := &fakeApp{}
	cfg := DefaultServerConfig()
	cfg.MaxSessions = 1
	srv := New(cfg, app.factory)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dial(t, ts, "")
	readFrame(t, conn)
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    FrameType
		wantErr bool
	}{
		{name: "event", data: `{"type":"event","event":{"action":"sort","column":"name"}}`, want: FrameEvent},
		{name: "navigate", data: `{"type":"navigate","search":"?page=2"}`, want: FrameNavigate},
		{name: "ping", data: `{"type":"ping"}`, want: FramePing},
		{name: "event without action", data: `{"type":"event","event":{}}`, wantErr: true},
		{name: "event missing", data: `{"type":"event"}`, wantErr: true},
		{name: "server frame", data: `{"type":"render","html":"x"}`, wantErr: true},
		{name: "not json", data: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "T160")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Type)
		})
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "example.com", true},
		{"http://example.com", "example.com", true},
		{"http://evil.com", "example.com", false},
		{"http://example.com:8080", "example.com", false},
		{"::", "example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/live", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, SameOriginCheck(r), "origin %q", tt.origin)
	}
}

func TestServerConfigDefaults(t *testing.T) {
	cfg := (&ServerConfig{Address: ":9999"}).withDefaults()
	assert.Equal(t, ":9999", cfg.Address)
	assert.Equal(t, "/live", cfg.LivePath)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	require.NotNil(t, cfg.SessionConfig)
	assert.Equal(t, 256, cfg.SessionConfig.MaxEventQueue)

	var nilCfg *ServerConfig
	assert.Equal(t, "localhost:3000", nilCfg.withDefaults().Address)
}
