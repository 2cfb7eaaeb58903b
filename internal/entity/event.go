package entity

import "time"

type EventType string

const (
	EventFileReceived  EventType = "file_received"
	EventFileTypeError EventType = "file_type_error"
	EventDecodeError   EventType = "decode_error"
	EventRendered      EventType = "rendered"
	EventRenderError   EventType = "render_error"
	EventExit          EventType = "exit"
)

// IconEvent is published to the message broker on session lifecycle changes.
type IconEvent struct {
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	FileName  string    `json:"file_name,omitempty"`
	MIMEType  string    `json:"mime_type,omitempty"`
	DrawSize  int       `json:"draw_size,omitempty"`
	Frame     int       `json:"frame"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	X         float64   `json:"x,omitempty"`
	Y         float64   `json:"y,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
