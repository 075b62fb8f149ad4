package server

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/middleware"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/render"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	"github.com/vango-dev/tabledash/pkg/tableui"
	"github.com/vango-dev/tabledash/pkg/vdom"
)

// heartbeatFloor is the shortest ping interval.
const heartbeatFloor = 10 * time.Millisecond

// LiveSession is the application side of one connection.
type LiveSession interface {
	Render() *vdom.VNode
	Handle(ev tableui.Event) error
	Close()
}

// SessionFactory builds a LiveSession bound to store. notify must be
// called after any change that needs a re-render; it never blocks.
type SessionFactory func(ctx context.Context, store querystate.Store, notify func()) (LiveSession, error)

// Session is one live WebSocket connection.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn     *websocket.Conn
	store    *querystate.MemoryStore
	live     LiveSession
	config   *SessionConfig
	renderer *render.Renderer
	metrics  *middleware.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
	ctx      context.Context

	inbound  chan Frame
	outbound chan Frame
	dirty    chan struct{}
	done     chan struct{}

	closeOnce  sync.Once
	wg         sync.WaitGroup
	unsub      func()
	lastHTML   string
	lastActive atomic.Int64
}

type sessionDeps struct {
	config   *SessionConfig
	renderer *render.Renderer
	metrics  *middleware.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

func generateSessionID() string {
	return uuid.NewString()
}

// newSession creates the store and the live session for one connection.
func newSession(ctx context.Context, conn *websocket.Conn, query url.Values, factory SessionFactory, deps sessionDeps) (*Session, error) {
	id := generateSessionID()
	queue := deps.config.MaxEventQueue
	if queue <= 0 {
		queue = DefaultSessionConfig().MaxEventQueue
	}
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		store:     querystate.NewMemoryStore(query),
		config:    deps.config,
		renderer:  deps.renderer,
		metrics:   deps.metrics,
		tracer:    deps.tracer,
		logger:    deps.logger.With("session_id", id),
		ctx:       ctx,
		inbound:   make(chan Frame, queue),
		outbound:  make(chan Frame, queue),
		dirty:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	s.touch()

	live, err := factory(ctx, s.store, s.markDirty)
	if err != nil {
		return nil, err
	}
	s.live = live
	s.unsub = s.store.Subscribe(s.onStoreChange)
	return s, nil
}

// Start queues the hello and first render and starts the event and write
// loops. The caller runs ReadLoop.
func (s *Session) Start() {
	s.queue(Frame{Type: FrameHello, Session: s.ID})
	s.markDirty()
	s.wg.Add(2)
	go s.EventLoop()
	go s.WriteLoop()
}

// Wait blocks until the event and write loops have exited.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastActive returns the time of the last client frame.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Close ends the session. The event loop releases the live session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// queue adds f to the outbound queue. A full queue closes the session
// since the client can no longer be kept consistent.
func (s *Session) queue(f Frame) {
	select {
	case s.outbound <- f:
	case <-s.done:
	default:
		s.logger.Warn("outbound queue full, closing session")
		s.metrics.RecordWebSocketError("queue_full")
		s.Close()
	}
}

// onStoreChange forwards binding writes to the browser's address bar.
// Navigation changes came from the browser and are not echoed.
func (s *Session) onStoreChange(c querystate.Change) {
	if c.Navigation {
		return
	}
	s.queue(Frame{Type: FrameURL, Search: "?" + c.Query.Encode(), Mode: c.Mode.String()})
}

// ReadLoop reads client frames until the connection closes.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				s.logger.Warn("read error", "error", err)
				s.metrics.RecordWebSocketError("read")
			}
			return
		}
		s.touch()
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		f, err := DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.queue(errorFrame(err, "T160"))
			continue
		}
		if f.Type == FramePing {
			s.queue(Frame{Type: FramePong})
			continue
		}

		select {
		case s.inbound <- f:
		case <-s.done:
			return
		default:
			s.queue(Frame{Type: FrameError, Code: "T160", Message: "event queue full"})
		}
	}
}

// EventLoop applies inbound frames and renders after changes. It owns the
// live session and releases it on exit.
func (s *Session) EventLoop() {
	defer s.wg.Done()
	defer func() {
		if s.unsub != nil {
			s.unsub()
		}
		s.live.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case f := <-s.inbound:
			s.handleFrame(f)
		case <-s.dirty:
			s.render()
		}
	}
}

func (s *Session) handleFrame(f Frame) {
	switch f.Type {
	case FrameNavigate:
		q, err := url.ParseQuery(strings.TrimPrefix(f.Search, "?"))
		if err != nil {
			s.queue(errorFrame(errors.New("T160").Wrap(err), "T160"))
			return
		}
		s.store.Navigate(q)
		s.markDirty()
	case FrameEvent:
		s.handleEvent(*f.Event)
	}
}

func (s *Session) handleEvent(ev tableui.Event) {
	_, span := s.tracer.Start(s.ctx, "live."+ev.Action,
		trace.WithAttributes(
			attribute.String("tabledash.session_id", s.ID),
			attribute.String("tabledash.action", ev.Action),
			attribute.String("tabledash.column", ev.Column),
		),
	)
	defer span.End()

	start := time.Now()
	err := s.safeHandle(ev)
	s.metrics.RecordEvent(ev.Action, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("event rejected", "action", ev.Action, "column", ev.Column, "error", err)
		code := "T160"
		if errors.Is(err, tablestate.ErrUnknownColumn) {
			code = "T140"
		}
		s.queue(errorFrame(err, code))
	}
	s.markDirty()
}

// safeHandle runs the live handler, converting a panic into an error.
func (s *Session) safeHandle(ev tableui.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler panic", "action", ev.Action, "panic", r)
			err = errors.New("T160").WithDetail("event handler failed")
		}
	}()
	return s.live.Handle(ev)
}

func (s *Session) render() {
	html, err := s.renderer.RenderToString(s.live.Render())
	if err != nil {
		s.logger.Error("render failed", "error", err)
		return
	}
	if html == s.lastHTML {
		return
	}
	s.lastHTML = html
	s.queue(Frame{Type: FrameRender, HTML: html})
}

// WriteLoop sends queued frames and heartbeat pings.
func (s *Session) WriteLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(max(s.config.HeartbeatInterval, heartbeatFloor))
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case f := <-s.outbound:
			if err := s.write(f); err != nil {
				s.logger.Debug("write failed", "error", err)
				s.metrics.RecordWebSocketError("write")
				s.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.metrics.RecordWebSocketError("ping")
				s.Close()
				return
			}
		}
	}
}

func (s *Session) write(f Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if f.Type == FrameRender || f.Type == FrameURL {
		s.metrics.RecordPatches(1)
	}
	return nil
}

// discard releases a session that was never started.
func (s *Session) discard() {
	if s.unsub != nil {
		s.unsub()
	}
	s.live.Close()
	s.Close()
}
