//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealWatcher watches lines on a GPIO character device.
type RealWatcher struct {
	lines []*gpiocdev.Line
}

// NewRealWatcher requests every line as a pulled-up input with both-edge
// detection and calls h for each debounced edge. Handlers run on the
// library's event goroutine.
func NewRealWatcher(chip string, debounce time.Duration, lines []Line, h Handler) (*RealWatcher, error) {
	w := &RealWatcher{}
	for _, line := range lines {
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				h(line, edgeEvent(evt.Type == gpiocdev.LineEventRisingEdge))
			}),
		}
		if debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(debounce))
		}

		l, err := gpiocdev.RequestLine(chip, line.Offset, opts...)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request line %d (%s): %w", line.Offset, line.Name, err)
		}
		w.lines = append(w.lines, l)
	}
	return w, nil
}

// Close releases the lines. Each line is reconfigured to a plain pulled-up
// input first so the button stays inert while nothing watches it.
func (w *RealWatcher) Close() error {
	var errs []error
	for _, l := range w.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	w.lines = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
