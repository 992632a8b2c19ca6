// Package status provides a thread-safe status tracker for the pushbutton daemon.
// It is read by HTTP handlers and MQTT status events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pushbutton/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
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
	Pin          int
	PullUp       bool
	DefaultState string
	Backend      string
	PollMs       int64
	DebounceMs   int64
	HeartbeatMs  int64
	Broker       string
	HTTPAddr     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Ready         bool
	PressPhase    logic.Phase
	ReleasePhase  logic.Phase
	Counts        logic.EventCounts
	LastEvent     *logic.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the current button state, debounce phases and event counts.
// Called from the poll loop on every tick.
func (t *Tracker) Update(state logic.State, press, release logic.Phase, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Ready = true
	t.snap.PressPhase = press
	t.snap.ReleasePhase = release
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent stores the most recent debounced event.
func (t *Tracker) RecordEvent(e logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.LastEvent != nil {
		e := *s.LastEvent
		s.LastEvent = &e
	}
	s.Now = t.now()
	return s
}
