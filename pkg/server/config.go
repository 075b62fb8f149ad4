package server

import (
	"net/http"
	"net/url"
	"time"
)

// SessionConfig contains per-connection settings.
type SessionConfig struct {
	// ReadTimeout is the maximum time between client frames. Heartbeat
	// pongs extend it.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between server pings.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the largest client frame accepted.
	MaxMessageSize int64

	// MaxEventQueue is the capacity of the inbound event and outbound
	// frame queues.
	MaxEventQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024, // 64KB
		MaxEventQueue:     256,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// Address is the TCP listen address, e.g. "localhost:3000".
	Address string

	// Title is the document title.
	Title string

	// Styles is inlined into every page.
	Styles string

	// LivePath is the WebSocket endpoint.
	LivePath string

	// MetricsPath serves Prometheus metrics when a gatherer is set.
	MetricsPath string

	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates WebSocket upgrade origins.
	CheckOrigin func(r *http.Request) bool

	SessionConfig *SessionConfig

	// MaxSessions limits concurrent live sessions. 0 means no limit.
	MaxSessions int

	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           "localhost:3000",
		Title:             "tabledash",
		Styles:            defaultStyles,
		LivePath:          "/live",
		MetricsPath:       "/metrics",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		SessionConfig:     DefaultSessionConfig(),
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// withDefaults fills every zero field from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	out := c.Clone()
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.Title == "" {
		out.Title = defaults.Title
	}
	if out.Styles == "" {
		out.Styles = defaults.Styles
	}
	if out.LivePath == "" {
		out.LivePath = defaults.LivePath
	}
	if out.MetricsPath == "" {
		out.MetricsPath = defaults.MetricsPath
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.SessionConfig == nil {
		out.SessionConfig = defaults.SessionConfig
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = defaults.IdleTimeout
	}
	return out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.SessionConfig = c.SessionConfig.Clone()
	return &clone
}
