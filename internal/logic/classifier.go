package logic

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Options tune a Classifier. Zero values select the defaults.
type Options struct {
	EventName      string
	LongPress      time.Duration
	SuperLongPress time.Duration
	Scheduler      Scheduler

	// OnTimerError is called when emitting from a timer fails. Timer
	// callbacks have no caller to return the error to. It runs with the
	// button lock held and must not call back into the classifier.
	OnTimerError func(b Button, err error)
}

// Classifier turns the raw press/release stream of one button into
// pressed, released, long_pressed and super_long_pressed events.
//
// A press emits pressed and arms the long press timer. If nothing else
// happens, long_pressed follows after LongPress and super_long_pressed after
// a further SuperLongPress. Any raw event cancels the pending timer first;
// a release emits released only for buttons that report release.
//
// All methods are safe for concurrent use.
type Classifier struct {
	button     Button
	id         string
	fullID     string
	eventName  string
	sink       Sink
	logbook    Logbook
	sched      Scheduler
	longPress  time.Duration
	superLong  time.Duration
	onTimerErr func(Button, error)

	mu    sync.Mutex
	state State
	timer Timer
	// generation is bumped on every cancel and every arm. A timer callback
	// only acts if the generation it captured is still current.
	generation uint64
	stopped    bool
}

// NewClassifier creates the classifier for a single button. logbook may be nil.
func NewClassifier(b Button, sink Sink, logbook Logbook, opts Options) *Classifier {
	c := &Classifier{
		button:     b,
		id:         b.ID(),
		fullID:     b.FullID(),
		eventName:  opts.EventName,
		sink:       sink,
		logbook:    logbook,
		sched:      opts.Scheduler,
		longPress:  opts.LongPress,
		superLong:  opts.SuperLongPress,
		onTimerErr: opts.OnTimerError,
	}
	if c.eventName == "" {
		c.eventName = DefaultEventName
	}
	if c.sched == nil {
		c.sched = RealScheduler{}
	}
	if c.longPress <= 0 {
		c.longPress = DefaultLongPress
	}
	if c.superLong <= 0 {
		c.superLong = DefaultSuperLongPress
	}
	return c
}

// Button returns the button this classifier was built for.
func (c *Classifier) Button() Button {
	return c.button
}

// ID returns the slugged button id used in event payloads.
func (c *Classifier) ID() string {
	return c.id
}

// FullID returns the slugged area + button id used in event payloads.
func (c *Classifier) FullID() string {
	return c.fullID
}

// State returns the current state.
func (c *Classifier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnRawEvent applies a raw event. Kinds other than Press and Release are
// ignored. The returned error comes from the sink or logbook; the state
// transition has already happened when it is returned.
func (c *Classifier) OnRawEvent(kind RawEvent) error {
	if kind != Press && kind != Release {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil
	}
	c.cancelLocked()

	if kind == Release {
		c.state = StateIdle
		if !c.button.Release {
			return nil
		}
		return c.emitLocked(ActionReleased)
	}

	if err := c.emitLocked(ActionPressed); err != nil {
		c.state = StateIdle
		return err
	}
	c.armLocked(c.longPress, c.longPressedLocked)
	c.state = StateAwaitingLong
	return nil
}

// Stop cancels any pending timer and makes the classifier ignore further
// raw events. A timer callback already running completes before Stop
// returns.
func (c *Classifier) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.state = StateIdle
	c.stopped = true
}

func (c *Classifier) longPressedLocked() error {
	if err := c.emitLocked(ActionLongPressed); err != nil {
		c.state = StateIdle
		return err
	}
	c.armLocked(c.superLong, c.superLongPressedLocked)
	c.state = StateAwaitingSuperLong
	return nil
}

func (c *Classifier) superLongPressedLocked() error {
	c.state = StateIdle
	return c.emitLocked(ActionSuperLongPressed)
}

// cancelLocked stops the pending timer, if any. Stopping a timer that has
// already fired is harmless: its callback sees a stale generation.
func (c *Classifier) cancelLocked() {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Classifier) armLocked(d time.Duration, step func() error) {
	c.generation++
	gen := c.generation
	c.timer = c.sched.AfterFunc(d, func() {
		c.fire(gen, step)
	})
}

func (c *Classifier) fire(gen uint64, step func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.timer = nil
	if err := step(); err != nil && c.onTimerErr != nil {
		c.onTimerErr(c.button, err)
	}
}

func (c *Classifier) emitLocked(action Action) error {
	data := map[string]string{
		AttrID:         c.id,
		AttrAction:     string(action),
		AttrFullID:     c.fullID,
		AttrAreaName:   c.button.AreaName,
		AttrButtonName: c.button.Name,
	}
	if err := c.sink.Fire(c.eventName, data); err != nil {
		return fmt.Errorf("fire %s for %s: %w", action, c.fullID, err)
	}
	if c.logbook == nil {
		return nil
	}
	if err := c.logbook.LogEntry(string(action), FormatLogbookMessage(data), LogbookDomain); err != nil {
		return fmt.Errorf("logbook %s for %s: %w", action, c.fullID, err)
	}
	return nil
}

// FormatLogbookMessage renders an event payload as text. Keys are sorted.
func FormatLogbookMessage(data map[string]string) string {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(b)
}
