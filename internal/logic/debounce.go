package logic

// StateMachine turns a noisy boolean into single-shot rising edges.
//
// An edge is reported only after the tracked condition has been false for
// DebounceInterval and then true for DebounceInterval. After a report the
// machine starts over, so a held condition yields exactly one edge.
// The zero value is ready to use.
type StateMachine struct {
	phase Phase
	since Millis
}

// ObserveEdge feeds one sample taken at now and reports whether a debounced
// rising edge completed on this call. Callers must poll with timestamps that
// never jump backwards by more than the wrap modulus allows.
func (m *StateMachine) ObserveEdge(value bool, now Millis) bool {
	switch m.phase {
	case PhaseWaitInactive:
		if !value {
			m.since = now
			m.phase = PhaseSettleInactive
		}

	case PhaseSettleInactive:
		if value {
			// Bounced back before settling.
			m.phase = PhaseWaitInactive
		} else if now.Since(m.since) >= DebounceInterval {
			m.phase = PhaseArmed
		}

	case PhaseArmed:
		if value {
			m.since = now
			m.phase = PhaseSettleActive
		}

	case PhaseSettleActive:
		if !value {
			m.phase = PhaseArmed
		} else if now.Since(m.since) >= DebounceInterval {
			m.phase = PhaseWaitInactive
			return true
		}
	}

	return false
}

// Phase returns the current phase.
func (m *StateMachine) Phase() Phase {
	return m.phase
}

// Reset returns the machine to its initial phase.
func (m *StateMachine) Reset() {
	*m = StateMachine{}
}
