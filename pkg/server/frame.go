package server

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/tableui"
)

// FrameType identifies a frame.
type FrameType string

const (
	FrameHello    FrameType = "hello"
	FrameEvent    FrameType = "event"
	FrameNavigate FrameType = "navigate"
	FrameURL      FrameType = "url"
	FrameRender   FrameType = "render"
	FrameError    FrameType = "error"
	FramePing     FrameType = "ping"
	FramePong     FrameType = "pong"
)

// Frame is one JSON WebSocket message in either direction.
type Frame struct {
	Type    FrameType      `json:"type"`
	Session string         `json:"session,omitempty"`
	Event   *tableui.Event `json:"event,omitempty"`

	// Search is a query string with its leading "?", used by navigate and
	// url frames. "?" alone is the empty query.
	Search string `json:"search,omitempty"`
	Mode   string `json:"mode,omitempty"`

	HTML    string `json:"html,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeFrame parses and validates a client frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.New("T160").Wrap(err)
	}
	switch f.Type {
	case FrameEvent:
		if f.Event == nil || f.Event.Action == "" {
			return Frame{}, errors.New("T160").WithDetail("event frame without an action")
		}
	case FrameNavigate, FramePing:
	default:
		return Frame{}, errors.New("T160").
			WithDetail(fmt.Sprintf("unexpected frame type %q", f.Type))
	}
	return f, nil
}

// Encode returns the JSON form of f.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// errorFrame builds an error frame, keeping the code of a coded error.
func errorFrame(err error, fallback string) Frame {
	e := errors.FromError(err, fallback)
	return Frame{Type: FrameError, Code: e.Code, Message: e.Error()}
}
