// Package mqtt publishes button activity and bridge lifecycle events to an
// MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicPrefix is the root of the per-button activity topics.
const TopicPrefix = "lutron/button"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "lutron/bridge/system"

// Topic returns the activity topic for the button with the given full id.
func Topic(fullID string) string {
	return TopicPrefix + "/" + fullID + "/button_activity"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a button activity event to the broker. A returned error
	// means the event was neither delivered nor buffered.
	Publish(event ButtonEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ButtonEvent is one classified button action.
type ButtonEvent struct {
	Timestamp time.Time
	// Name is the event name, e.g. "button_activity".
	Name string
	// Data carries id, action, full_id, area_name and button_name.
	Data map[string]string
}

// FullID returns the full_id attribute of the event.
func (e ButtonEvent) FullID() string {
	return e.Data["full_id"]
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the JSON body of an activity message.
type Payload struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

// FormatPayload creates the JSON payload for a button event.
func FormatPayload(event ButtonEvent) ([]byte, error) {
	data := event.Data
	if data == nil {
		data = map[string]string{}
	}
	return json.Marshal(Payload{
		Event:     event.Name,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Data:      data,
	})
}

// SystemPayload is used for simple events (LWT, RECONNECTED) that don't
// carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
