package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/sweeney/lutron-bridge/internal/config"
	"github.com/sweeney/lutron-bridge/internal/gpio"
	"github.com/sweeney/lutron-bridge/internal/logic"
	"github.com/sweeney/lutron-bridge/internal/lutron"
)

// subscriber is the subscription half of lutron.Conn.
type subscriber interface {
	Subscribe(deviceID, component int, h lutron.Handler)
}

// wireButtons creates a classifier per keypad button and subscribes it to
// the repeater session.
func wireButtons(sub subscriber, buttons []lutron.KeypadButton, sink logic.Sink, lb logic.Logbook, opts logic.Options) []*logic.Classifier {
	out := make([]*logic.Classifier, 0, len(buttons))
	for _, b := range buttons {
		c := logic.NewClassifier(b.Button, sink, lb, opts)
		sub.Subscribe(b.DeviceID, b.Component, c.OnRawEvent)
		out = append(out, c)
	}
	return out
}

// stopClassifiers cancels every pending long press timer so nothing is
// emitted once the sink is being torn down.
func stopClassifiers(cs []*logic.Classifier) {
	for _, c := range cs {
		c.Stop()
	}
}

func gpioLines(buttons []config.GPIOButtonConfig) []gpio.Line {
	lines := make([]gpio.Line, len(buttons))
	for i, b := range buttons {
		lines[i] = gpio.Line{Name: b.Name, Area: b.Area, Offset: b.Line}
	}
	return lines
}

// wireGPIO creates a classifier per GPIO line and returns the edge handler
// that feeds them. Classification errors are logged.
func wireGPIO(lines []gpio.Line, sink logic.Sink, lb logic.Logbook, opts logic.Options, log zerolog.Logger) ([]*logic.Classifier, gpio.Handler) {
	byOffset := make(map[int]*logic.Classifier, len(lines))
	out := make([]*logic.Classifier, 0, len(lines))
	for _, l := range lines {
		c := logic.NewClassifier(l.Button(), sink, lb, opts)
		byOffset[l.Offset] = c
		out = append(out, c)
	}

	handler := func(l gpio.Line, kind logic.RawEvent) {
		c, ok := byOffset[l.Offset]
		if !ok {
			return
		}
		if err := c.OnRawEvent(kind); err != nil {
			log.Error().Err(err).Str("button", c.FullID()).Stringer("event", kind).Msg("gpio button handler failed")
		}
	}
	return out, handler
}

func printButtons(w io.Writer, buttons []lutron.KeypadButton) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tCOMPONENT\tFULL ID\tTYPE\tRELEASE")
	for _, b := range buttons {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%v\n", b.DeviceID, b.Component, b.FullID(), b.Type, b.Release)
	}
	tw.Flush()
}
