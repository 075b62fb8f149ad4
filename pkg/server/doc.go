// Package server serves a live, URL-synchronized table over HTTP and
// WebSocket.
//
// A GET of the page renders the table server-side from the request's
// query string. The inlined thin client then opens a WebSocket to the
// live endpoint with the same query, and the server creates a Session
// whose query store is seeded from it.
//
// # Session Lifecycle
//
// Each WebSocket connection creates a Session that owns:
//   - a querystate.MemoryStore mirroring the browser's query string
//   - the LiveSession built by the application's SessionFactory
//   - an outbound frame queue
//
// The session runs three goroutines:
//   - ReadLoop: receives JSON frames and queues events
//   - EventLoop: applies events and re-renders when the table changed
//   - WriteLoop: sends queued frames and heartbeat pings
//
// # Frames
//
// Client to server:
//
//	{"type":"event","event":{"action":"sort","column":"name"}}
//	{"type":"navigate","search":"?page=2"}
//	{"type":"ping"}
//
// Server to client:
//
//	{"type":"hello","session":"…"}
//	{"type":"url","search":"?page=2","mode":"push"}
//	{"type":"render","html":"…"}
//	{"type":"error","code":"T160","message":"…"}
//	{"type":"pong"}
//
// URL frames for a state change are queued before the render they cause,
// so the browser's address bar updates first.
package server
