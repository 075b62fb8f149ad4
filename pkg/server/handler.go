package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/render"
	"github.com/vango-dev/tabledash/pkg/vdom"
)

// AppRootID is the element whose contents render frames replace.
const AppRootID = "app"

// servePage renders the table for the request's query string. The
// throwaway session starts the first fetch, which the live session then
// finds in flight or cached.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	store := querystate.NewMemoryStore(r.URL.Query())
	live, err := s.factory(r.Context(), store, nil)
	if err != nil {
		s.logger.Error("page session failed", "error", err)
		http.Error(w, errors.FromError(err, "T180").Error(), http.StatusInternalServerError)
		return
	}
	defer live.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = s.renderer.RenderPage(w, render.PageData{
		Title:        s.config.Title,
		Styles:       s.config.Styles,
		Body:         vdom.Div(vdom.ID(AppRootID), live.Render()),
		LiveURL:      s.config.LivePath,
		ClientScript: thinClientJS,
	})
	if err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

// HandleWebSocket upgrades the connection and runs a live session until
// it closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.HasCapacity() {
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", errors.New("T161").Wrap(err))
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	sess, err := newSession(r.Context(), conn, r.URL.Query(), s.factory, s.sessionDeps())
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		if data, encErr := errorFrame(err, "T161").Encode(); encErr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
		conn.Close()
		return
	}
	if err := s.sessions.Add(sess); err != nil {
		sess.discard()
		return
	}
	defer s.sessions.Remove(sess.ID)

	sess.Start()
	sess.ReadLoop()
	sess.Wait()
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Sessions: s.sessions.Count()})
}
