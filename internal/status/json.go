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
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Ready         bool         `json:"ready"`
	Debounce      DebounceJSON `json:"debounce"`
	LastEvent     *EventJSON   `json:"last_event,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// DebounceJSON reports the phase of each debounce state machine.
type DebounceJSON struct {
	Press   string `json:"press"`
	Release string `json:"release"`
}

// EventJSON is the most recent debounced event.
type EventJSON struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Presses  int `json:"presses"`
	Releases int `json:"releases"`
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
	Pin          int    `json:"pin"`
	PullUp       bool   `json:"pull_up"`
	DefaultState string `json:"default_state"`
	Backend      string `json:"backend"`
	PollMs       int64  `json:"poll_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
}

// StateString returns the state, or UNKNOWN before the first poll.
func (s Snapshot) StateString() string {
	if s.State == "" {
		return "UNKNOWN"
	}
	return string(s.State)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State: snap.StateString(),
		Ready: snap.Ready,
		Debounce: DebounceJSON{
			Press:   snap.PressPhase.String(),
			Release: snap.ReleasePhase.String(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Presses:  snap.Counts.Presses,
			Releases: snap.Counts.Releases,
		},
		Config: ConfigJSON{
			Pin:          snap.Config.Pin,
			PullUp:       snap.Config.PullUp,
			DefaultState: snap.Config.DefaultState,
			Backend:      snap.Config.Backend,
			PollMs:       snap.Config.PollMs,
			DebounceMs:   snap.Config.DebounceMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}

	if snap.LastEvent != nil {
		inner.LastEvent = &EventJSON{
			Type:      string(snap.LastEvent.Type),
			Timestamp: snap.LastEvent.Timestamp.UTC().Format(time.RFC3339),
		}
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

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
