package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Buttons       int            `json:"buttons"`
	MQTT          ConnStatus     `json:"mqtt"`
	Lutron        ConnStatus     `json:"lutron"`
	Counts        CountsJSON     `json:"action_counts"`
	Recent        []ActivityJSON `json:"recent,omitempty"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// ConnStatus reports one upstream connection.
type ConnStatus struct {
	Connected bool   `json:"connected"`
	Addr      string `json:"addr"`
}

// CountsJSON is the JSON representation of action counts.
type CountsJSON struct {
	Pressed          int64 `json:"pressed"`
	Released         int64 `json:"released"`
	LongPressed      int64 `json:"long_pressed"`
	SuperLongPressed int64 `json:"super_long_pressed"`
}

// ActivityJSON is the last action of one button.
type ActivityJSON struct {
	FullID     string `json:"full_id"`
	ID         string `json:"id"`
	Action     string `json:"action"`
	AreaName   string `json:"area_name"`
	ButtonName string `json:"button_name"`
	Timestamp  string `json:"timestamp"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	EventName        string `json:"event_name"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	LongPressMs      int64  `json:"long_press_ms"`
	SuperLongPressMs int64  `json:"super_long_press_ms"`
	HTTPAddr         string `json:"http_addr"`
}

// ActivityToJSON converts a to its JSON form.
func ActivityToJSON(a Activity) ActivityJSON {
	return ActivityJSON{
		FullID:     a.FullID,
		ID:         a.ID,
		Action:     a.Action,
		AreaName:   a.AreaName,
		ButtonName: a.ButtonName,
		Timestamp:  a.At.UTC().Format(time.RFC3339),
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Buttons:       snap.Buttons,
		MQTT:          ConnStatus{Connected: snap.MQTTConnected, Addr: snap.Config.Broker},
		Lutron:        ConnStatus{Connected: snap.LutronConnected, Addr: snap.Config.Repeater},
		Counts: CountsJSON{
			Pressed:          snap.Counts.Pressed,
			Released:         snap.Counts.Released,
			LongPressed:      snap.Counts.LongPressed,
			SuperLongPressed: snap.Counts.SuperLongPressed,
		},
		Config: ConfigJSON{
			EventName:        snap.Config.EventName,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			LongPressMs:      snap.Config.LongPressMs,
			SuperLongPressMs: snap.Config.SuperLongPressMs,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint, including the
// recent activity list.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	for _, a := range snap.Recent {
		inner.Recent = append(inner.Recent, ActivityToJSON(a))
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Recent activity is left out to keep lifecycle messages small.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
