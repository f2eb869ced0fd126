package gpio

import (
	"errors"
	"sync"
)

// FakeWatcher is a test double that delivers scripted edges.
type FakeWatcher struct {
	mu      sync.Mutex
	lines   map[int]Line
	handler Handler

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeWatcher creates a FakeWatcher for the given lines.
func NewFakeWatcher(lines []Line, h Handler) *FakeWatcher {
	f := &FakeWatcher{lines: make(map[int]Line), handler: h}
	for _, l := range lines {
		f.lines[l.Offset] = l
	}
	return f
}

// Edge simulates an edge on the line at offset. It returns an error for
// unknown lines or after Close.
func (f *FakeWatcher) Edge(offset int, rising bool) error {
	f.mu.Lock()
	line, ok := f.lines[offset]
	closed := f.Closed
	f.mu.Unlock()

	if closed {
		return errors.New("watcher closed")
	}
	if !ok {
		return errors.New("line not watched")
	}
	f.handler(line, edgeEvent(rising))
	return nil
}

// Click simulates a full press and release.
func (f *FakeWatcher) Click(offset int) error {
	if err := f.Edge(offset, false); err != nil {
		return err
	}
	return f.Edge(offset, true)
}

// Close marks the watcher as closed.
func (f *FakeWatcher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

var _ Watcher = (*FakeWatcher)(nil)
