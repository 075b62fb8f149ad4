package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrTooManySessions is returned by Add when MaxSessions is reached.
var ErrTooManySessions = stderrors.New("server: too many sessions")

// SessionManager tracks the open live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions int

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peakSessions int

	onSessionCreate func(*Session)
	onSessionClose  func(*Session)

	logger *slog.Logger
}

// ManagerStats is a snapshot of session counts.
type ManagerStats struct {
	Active       int
	Peak         int
	TotalCreated uint64
	TotalClosed  uint64
}

// NewSessionManager creates a manager. maxSessions 0 means no limit.
func NewSessionManager(maxSessions int, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default().With("component", "sessions")
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// SetOnSessionCreate sets a hook run after a session is added.
func (sm *SessionManager) SetOnSessionCreate(fn func(*Session)) {
	sm.onSessionCreate = fn
}

// SetOnSessionClose sets a hook run after a session is removed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.onSessionClose = fn
}

// HasCapacity reports whether another session may be added.
func (sm *SessionManager) HasCapacity() bool {
	if sm.maxSessions <= 0 {
		return true
	}
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions) < sm.maxSessions
}

// Add registers s.
func (sm *SessionManager) Add(s *Session) error {
	sm.mu.Lock()
	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		sm.mu.Unlock()
		return ErrTooManySessions
	}
	sm.sessions[s.ID] = s
	if n := len(sm.sessions); n > sm.peakSessions {
		sm.peakSessions = n
	}
	sm.mu.Unlock()

	sm.totalCreated.Add(1)
	if sm.onSessionCreate != nil {
		sm.onSessionCreate(s)
	}
	sm.logger.Debug("session created", "session_id", s.ID)
	return nil
}

// Remove unregisters the session with id. Removing an unknown id is a
// no-op.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}

	sm.totalClosed.Add(1)
	if sm.onSessionClose != nil {
		sm.onSessionClose(s)
	}
	sm.logger.Debug("session closed", "session_id", id)
}

// Get returns the session with id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Stats returns aggregated session statistics.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	active, peak := len(sm.sessions), sm.peakSessions
	sm.mu.RUnlock()
	return ManagerStats{
		Active:       active,
		Peak:         peak,
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}

// ShutdownWithContext closes every session and waits for their loops to
// exit or ctx to end.
func (sm *SessionManager) ShutdownWithContext(ctx context.Context) error {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
			s.Wait()
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sm.logger.Info("session manager shutdown", "closed_sessions", len(sessions))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
