package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func testEvent() ButtonEvent {
	return ButtonEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Name:      "button_activity",
		Data: map[string]string{
			"id":          "island_keypad_lights",
			"action":      "long_pressed",
			"full_id":     "kitchen_island_keypad_lights",
			"area_name":   "Kitchen",
			"button_name": "Lights",
		},
	}
}

func TestTopic(t *testing.T) {
	got := Topic("kitchen_island_keypad_lights")
	want := "lutron/button/kitchen_island_keypad_lights/button_activity"
	if got != want {
		t.Errorf("Topic() = %q, want %q", got, want)
	}
}

func TestTopicSystem(t *testing.T) {
	if TopicSystem != "lutron/bridge/system" {
		t.Errorf("TopicSystem = %q", TopicSystem)
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(testEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Event != "button_activity" {
		t.Errorf("event: %s", parsed.Event)
	}
	if parsed.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("timestamp: %s", parsed.Timestamp)
	}
	if parsed.Data["action"] != "long_pressed" || parsed.Data["full_id"] != "kitchen_island_keypad_lights" {
		t.Errorf("data: %v", parsed.Data)
	}
	if len(parsed.Data) != 5 {
		t.Errorf("expected 5 data attributes, got %d", len(parsed.Data))
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	ev := ButtonEvent{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600)),
		Name:      "lutron_event",
		Data:      map[string]string{"action": "pressed", "id": "a"},
	}

	payload, err := FormatPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"event":"lutron_event","timestamp":"2025-12-31T23:00:00Z","data":{"action":"pressed","id":"a"}}`
	if string(payload) != want {
		t.Errorf("got  %s\nwant %s", payload, want)
	}
}

func TestFormatPayloadNilData(t *testing.T) {
	payload, err := FormatPayload(ButtonEvent{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := parsed["data"].(map[string]any); !ok {
		t.Errorf("data should be an object, got %v", parsed["data"])
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		name  string
		event SystemEvent
		want  string
	}{
		{
			"shutdown with reason",
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "SHUTDOWN", Reason: "SIGTERM"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			"reconnected omits reason",
			SystemEvent{Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Event: "RECONNECTED"},
			`{"system":{"timestamp":"2026-02-03T10:00:00Z","event":"RECONNECTED"}}`,
		},
		{
			"raw payload passes through",
			SystemEvent{Event: "STARTUP", RawPayload: []byte(`{"status":"ok"}`)},
			`{"status":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestButtonEventFullID(t *testing.T) {
	if got := testEvent().FullID(); got != "kitchen_island_keypad_lights" {
		t.Errorf("FullID() = %q", got)
	}
	if got := (ButtonEvent{}).FullID(); got != "" {
		t.Errorf("FullID() of empty event = %q", got)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events()) != 1 || len(f.Payloads()) != 1 {
		t.Fatalf("expected 1 event and payload, got %d/%d", len(f.Events()), len(f.Payloads()))
	}
	if f.Events()[0].Data["action"] != "long_pressed" {
		t.Errorf("unexpected event: %+v", f.Events()[0])
	}
	if len(f.SystemEvents()) != 1 || f.SystemEvents()[0].Event != "HEARTBEAT" {
		t.Errorf("unexpected system events: %+v", f.SystemEvents())
	}
	if len(f.SystemPayloads()) != 1 {
		t.Errorf("expected 1 system payload, got %d", len(f.SystemPayloads()))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.SetPublishError(errors.New("broker down"))
	f.SetPublishSystemError(errors.New("broker down"))

	if err := f.Publish(testEvent()); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events()) != 0 || len(f.SystemEvents()) != 0 {
		t.Error("nothing should be recorded on error")
	}
}

func TestFakePublisherConnectionAndClose(t *testing.T) {
	f := NewFakePublisher()

	if !f.IsConnected() {
		t.Error("new fake should be connected")
	}
	f.SetConnected(false)
	if f.IsConnected() {
		t.Error("expected disconnected")
	}

	if f.Closed() {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(testEvent())
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.SetPublishError(errors.New("x"))

	f.Reset()

	if len(f.Events()) != 0 || len(f.SystemEvents()) != 0 || f.Closed() {
		t.Error("Reset should clear recorded state")
	}
	if err := f.Publish(testEvent()); err != nil {
		t.Errorf("Reset should clear injected errors: %v", err)
	}
}

var (
	_ Publisher        = (*FakePublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
	_ Publisher        = (*RealPublisher)(nil)
	_ ConnectionStatus = (*RealPublisher)(nil)
)
