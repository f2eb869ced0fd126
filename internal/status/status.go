// Package status provides a thread-safe status tracker for the lutron-bridge
// daemon. It is read by the HTTP handlers and by lifecycle events.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/atomic"

	"github.com/sweeney/lutron-bridge/internal/logic"
)

// DefaultRecentSize is the number of buttons whose last activity is kept.
const DefaultRecentSize = 64

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Repeater         string
	Broker           string
	HTTPAddr         string
	EventName        string
	HeartbeatMs      int64
	LongPressMs      int64
	SuperLongPressMs int64
}

// Counts holds the number of emitted actions by kind.
type Counts struct {
	Pressed          int64
	Released         int64
	LongPressed      int64
	SuperLongPressed int64
}

// Total returns the sum of all counts.
func (c Counts) Total() int64 {
	return c.Pressed + c.Released + c.LongPressed + c.SuperLongPressed
}

// Activity is the last action seen on one button.
type Activity struct {
	Event      string
	Action     string
	ID         string
	FullID     string
	AreaName   string
	ButtonName string
	At         time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the Tracker moves on.
type Snapshot struct {
	Counts          Counts
	Buttons         int
	Recent          []Activity // newest first
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	LutronConnected bool
	Network         *NetworkInfo
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state.
type Tracker struct {
	startTime time.Time
	config    Config

	pressed          atomic.Int64
	released         atomic.Int64
	longPressed      atomic.Int64
	superLongPressed atomic.Int64

	buttons         atomic.Int64
	mqttConnected   atomic.Bool
	lutronConnected atomic.Bool

	last gcache.Cache // full id -> Activity

	mu      sync.RWMutex
	network *NetworkInfo
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		startTime: startTime,
		config:    cfg,
		last:      gcache.New(DefaultRecentSize).LRU().Build(),
	}
}

// ObserveActivity records one published button event.
func (t *Tracker) ObserveActivity(event string, data map[string]string, at time.Time) {
	action := data[logic.AttrAction]
	switch logic.Action(action) {
	case logic.ActionPressed:
		t.pressed.Inc()
	case logic.ActionReleased:
		t.released.Inc()
	case logic.ActionLongPressed:
		t.longPressed.Inc()
	case logic.ActionSuperLongPressed:
		t.superLongPressed.Inc()
	}

	fullID := data[logic.AttrFullID]
	if fullID == "" {
		return
	}
	// An LRU without a serialize func never fails Set.
	_ = t.last.Set(fullID, Activity{
		Event:      event,
		Action:     action,
		ID:         data[logic.AttrID],
		FullID:     fullID,
		AreaName:   data[logic.AttrAreaName],
		ButtonName: data[logic.AttrButtonName],
		At:         at,
	})
}

// SetButtons sets the number of buttons being classified.
func (t *Tracker) SetButtons(n int) {
	t.buttons.Store(int64(n))
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mqttConnected.Store(connected)
}

// SetLutronConnected sets the repeater session status.
func (t *Tracker) SetLutronConnected(connected bool) {
	t.lutronConnected.Store(connected)
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.network = info
	t.mu.Unlock()
}

// Counts returns the current action counts.
func (t *Tracker) Counts() Counts {
	return Counts{
		Pressed:          t.pressed.Load(),
		Released:         t.released.Load(),
		LongPressed:      t.longPressed.Load(),
		SuperLongPressed: t.superLongPressed.Load(),
	}
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	network := t.network
	t.mu.RUnlock()

	return Snapshot{
		Counts:          t.Counts(),
		Buttons:         int(t.buttons.Load()),
		Recent:          t.recent(),
		StartTime:       t.startTime,
		Now:             time.Now(),
		MQTTConnected:   t.mqttConnected.Load(),
		LutronConnected: t.lutronConnected.Load(),
		Network:         network,
		Config:          t.config,
	}
}

func (t *Tracker) recent() []Activity {
	all := t.last.GetALL(false)
	out := make([]Activity, 0, len(all))
	for _, v := range all {
		out = append(out, v.(Activity))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		return out[i].FullID < out[j].FullID
	})
	return out
}
