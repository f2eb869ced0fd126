// Package bus delivers classified button events: it publishes them to MQTT
// and notifies in-process observers such as the status tracker.
package bus

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/sweeney/lutron-bridge/internal/mqtt"
)

// ErrSinkUnavailable wraps every publish failure returned by Fire.
var ErrSinkUnavailable = errors.New("bus: event sink unavailable")

// Observer is notified of every successfully published event.
// Implementations must not block.
type Observer interface {
	ObserveActivity(event string, data map[string]string, at time.Time)
}

// Bus is the classifier's outbound sink.
type Bus struct {
	pub       mqtt.Publisher
	observers []Observer
	now       func() time.Time
}

// New returns a Bus publishing through pub.
func New(pub mqtt.Publisher, observers ...Observer) *Bus {
	return &Bus{pub: pub, observers: observers, now: time.Now}
}

// Fire publishes one event. Observers are only notified when the publish
// succeeds.
func (b *Bus) Fire(event string, data map[string]string) error {
	at := b.now()
	ev := mqtt.ButtonEvent{Timestamp: at, Name: event, Data: maps.Clone(data)}
	if err := b.pub.Publish(ev); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}

	for _, o := range b.observers {
		o.ObserveActivity(event, ev.Data, at)
	}
	return nil
}
