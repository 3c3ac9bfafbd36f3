package app

import "time"

// Event types published to the EventSink.
const (
	EventSessionStarted = "session_started"
	EventSessionStopped = "session_stopped"
	EventObservation    = "observation"
	EventNotification   = "notification"
	EventCapture        = "capture"
	EventEnabled        = "enabled"
)

// Event is a live pipeline event.
type Event struct {
	Type      string    `json:"type"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Streak    int       `json:"streak,omitempty"`
	PhotoPath string    `json:"photo_path,omitempty"`
	CaptureID string    `json:"capture_id,omitempty"`
	// Enabled is set on enabled events only.
	Enabled *bool `json:"enabled,omitempty"`
}

// EventSink receives live pipeline events. Publish must not block.
type EventSink interface {
	Publish(e Event)
}

type discardSink struct{}

func (discardSink) Publish(Event) {}
