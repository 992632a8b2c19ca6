// Package logic contains the pure debounce logic for a single pushbutton.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via Millis parameters.
package logic

import "time"

// Millis is a millisecond timestamp that wraps at 65536.
// Differences must be taken with unsigned subtraction so that a run
// straddling the wrap point still measures correctly.
type Millis uint16

// Since returns the elapsed milliseconds from earlier to m, modulo 65536.
func (m Millis) Since(earlier Millis) Millis {
	return m - earlier
}

// DebounceInterval is how long a level must hold before it counts.
const DebounceInterval Millis = 15

// Phase is the position of a StateMachine in its four-step cycle.
type Phase uint8

const (
	// PhaseWaitInactive waits for the tracked condition to go false.
	PhaseWaitInactive Phase = iota
	// PhaseSettleInactive times how long the condition has stayed false.
	PhaseSettleInactive
	// PhaseArmed has a confirmed false level and waits for the condition.
	PhaseArmed
	// PhaseSettleActive times how long the condition has stayed true.
	PhaseSettleActive
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitInactive:
		return "WAIT_INACTIVE"
	case PhaseSettleInactive:
		return "SETTLE_INACTIVE"
	case PhaseArmed:
		return "ARMED"
	case PhaseSettleActive:
		return "SETTLE_ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// State represents the logical state of the button.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// StateOf converts a logical pressed flag to a State.
func StateOf(pressed bool) State {
	if pressed {
		return StatePressed
	}
	return StateReleased
}

// EventType represents a debounced button transition.
type EventType string

const (
	EventPress   EventType = "PRESS"
	EventRelease EventType = "RELEASE"
)

// Event represents a debounced transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Pin       int
	State     State
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Presses  int
	Releases int
}

// Count records one event.
func (c *EventCounts) Count(t EventType) {
	switch t {
	case EventPress:
		c.Presses++
	case EventRelease:
		c.Releases++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
