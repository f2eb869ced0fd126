package mqtt

import "sync"

// FakePublisher records published events for test assertions.
// It is safe for concurrent use.
type FakePublisher struct {
	mu sync.Mutex

	events         []ButtonEvent
	payloads       [][]byte
	systemEvents   []SystemEvent
	systemPayloads [][]byte

	publishErr       error
	publishSystemErr error
	closed           bool
	connected        bool
}

// NewFakePublisher creates a connected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{connected: true}
}

// Publish records the button event.
func (f *FakePublisher) Publish(event ButtonEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishSystemErr != nil {
		return f.publishSystemErr
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.systemEvents = append(f.systemEvents, event)
	f.systemPayloads = append(f.systemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected sets the value reported by IsConnected.
func (f *FakePublisher) SetConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

// SetPublishError makes subsequent Publish calls fail with err.
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

// SetPublishSystemError makes subsequent PublishSystem calls fail with err.
func (f *FakePublisher) SetPublishSystemError(err error) {
	f.mu.Lock()
	f.publishSystemErr = err
	f.mu.Unlock()
}

// Events returns a copy of the recorded button events.
func (f *FakePublisher) Events() []ButtonEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ButtonEvent(nil), f.events...)
}

// Payloads returns a copy of the recorded button payloads.
func (f *FakePublisher) Payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

// SystemEvents returns a copy of the recorded system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// SystemPayloads returns a copy of the recorded system payloads.
func (f *FakePublisher) SystemPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.systemPayloads...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded events and injected errors.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
	f.payloads = nil
	f.systemEvents = nil
	f.systemPayloads = nil
	f.publishErr = nil
	f.publishSystemErr = nil
	f.closed = false
}
