// Package gpio delivers press and release events from momentary buttons
// wired to Linux GPIO lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/lutron-bridge/internal/logic"

// Line is one button input. Buttons are wired active-low: the line is pulled
// up and the button shorts it to ground while held.
type Line struct {
	Name   string
	Area   string
	Offset int
}

// KeypadName is the keypad name given to every GPIO button.
const KeypadName = "GPIO"

// Handler receives raw events for a line.
type Handler func(line Line, kind logic.RawEvent)

// Watcher delivers edge events until closed.
type Watcher interface {
	// Close releases GPIO resources. No handler runs after Close returns.
	Close() error
}

// Button describes the line as a classifier button. GPIO buttons always
// report release.
func (l Line) Button() logic.Button {
	return logic.Button{
		AreaName:   l.Area,
		KeypadName: KeypadName,
		Name:       l.Name,
		Number:     l.Offset,
		Release:    true,
	}
}

// edgeEvent maps an edge to a raw event for active-low wiring.
func edgeEvent(rising bool) logic.RawEvent {
	if rising {
		return logic.Release
	}
	return logic.Press
}
