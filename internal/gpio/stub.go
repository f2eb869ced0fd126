//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns an error on non-Linux platforms.
func NewRealWatcher(chip string, debounce time.Duration, lines []Line, h Handler) (*RealWatcher, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWatcher) Close() error {
	return nil
}
