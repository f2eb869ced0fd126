// Package logic contains the button activity classifier.
// This package does no network, MQTT or OS access.
// Timers are always injectable via a Scheduler.
package logic

import (
	"strconv"
	"strings"
	"time"
)

// RawEvent is a notification delivered by a physical button.
type RawEvent int

const (
	Press RawEvent = iota + 1
	Release
)

func (e RawEvent) String() string {
	switch e {
	case Press:
		return "PRESS"
	case Release:
		return "RELEASE"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(e)) + ")"
	}
}

// Action is a classified button action.
type Action string

const (
	ActionPressed          Action = "pressed"
	ActionReleased         Action = "released"
	ActionLongPressed      Action = "long_pressed"
	ActionSuperLongPressed Action = "super_long_pressed"
)

// State is the classifier state of a single button.
type State int

const (
	StateIdle State = iota
	StateAwaitingLong
	StateAwaitingSuperLong
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAwaitingLong:
		return "AWAITING_LONG"
	case StateAwaitingSuperLong:
		return "AWAITING_SUPER_LONG"
	default:
		return "UNKNOWN"
	}
}

// Payload keys of an emitted button event.
const (
	AttrID         = "id"
	AttrAction     = "action"
	AttrFullID     = "full_id"
	AttrAreaName   = "area_name"
	AttrButtonName = "button_name"
)

const (
	// DefaultEventName is the event name used for every classified action.
	DefaultEventName = "button_activity"

	// LogbookDomain tags logbook entries written by the classifier.
	LogbookDomain = "lutron_bridge"

	DefaultLongPress      = 500 * time.Millisecond
	DefaultSuperLongPress = 1 * time.Second

	// UnknownButtonName is the name given to buttons without an engraving.
	UnknownButtonName = "Unknown Button"
)

// Button identifies a physical button. It is read-only to the classifier.
type Button struct {
	AreaName   string
	KeypadName string
	Name       string
	Number     int
	// Type is the controller's button-type label (e.g. "Toggle",
	// "SingleSceneRaiseLower").
	Type string
	// Release reports whether the button emits a release transition at all.
	Release bool
}

// ReleaseCapable reports whether a button of the given type label reports
// release transitions. Only raise/lower buttons do.
func ReleaseCapable(buttonType string) bool {
	return strings.Contains(buttonType, "RaiseLower")
}

// DisplayName is "<keypad>: <button>", with the button number appended
// when the button has no engraving.
func (b Button) DisplayName() string {
	name := b.KeypadName + ": " + b.Name
	if b.Name == UnknownButtonName {
		name += " " + strconv.Itoa(b.Number)
	}
	return name
}

// ID is the slug of the display name.
func (b Button) ID() string {
	return Slugify(b.DisplayName())
}

// FullID is the slug of the area name followed by the display name.
func (b Button) FullID() string {
	return Slugify(b.AreaName + " " + b.DisplayName())
}

// Sink receives classified events. Implementations must be safe for
// concurrent use; events of different buttons arrive in no particular order.
type Sink interface {
	Fire(event string, data map[string]string) error
}

// Logbook receives one human-readable entry per classified event.
type Logbook interface {
	LogEntry(name, message, domain string) error
}
