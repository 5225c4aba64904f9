// Package hub provides a thread-safe websocket broadcast hub using the
// channel-based fan-out pattern. The web layer pushes status changes and
// finished turns into it; every connected dashboard receives them.
package hub

import (
	"encoding/json"
	"time"
)

// EventType names the kinds of events pushed to dashboards.
type EventType string

const (
	// EventStatus announces a status state machine transition.
	EventStatus EventType = "status"

	// EventTurn carries a completed turn result.
	EventTurn EventType = "turn"

	// EventWarning carries non-fatal warnings (slow turn, fallback used).
	EventWarning EventType = "warning"

	// EventError carries a stage failure message.
	EventError EventType = "error"
)

// Event is the envelope broadcast to websocket clients.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with the payload JSON-encoded.
func NewEvent(t EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}
