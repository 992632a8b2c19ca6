package logic

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signal builds a sample sequence from (level, length) runs.
func signal(runs ...interface{}) []bool {
	var out []bool
	for i := 0; i+1 < len(runs); i += 2 {
		level := runs[i].(bool)
		n := runs[i+1].(int)
		for j := 0; j < n; j++ {
			out = append(out, level)
		}
	}
	return out
}

// feed polls m once per sample, step ms apart starting at start, and returns
// the indices of the samples on which an edge was reported.
func feed(m *StateMachine, samples []bool, start, step Millis) []int {
	var edges []int
	now := start
	for i, v := range samples {
		if m.ObserveEdge(v, now) {
			edges = append(edges, i)
		}
		now += step
	}
	return edges
}

func TestZeroValueStartsWaitingForInactive(t *testing.T) {
	var m StateMachine
	assert.Equal(t, PhaseWaitInactive, m.Phase())
}

func TestCleanPressReportsOnceAtInterval(t *testing.T) {
	var m StateMachine
	samples := signal(false, 50, true, 50)

	edges := feed(&m, samples, 0, 1)

	require.Len(t, edges, 1)
	assert.Equal(t, 50+int(DebounceInterval), edges[0], "edge must land on the first poll 15ms into the run")
}

func TestFastToggleNeverReports(t *testing.T) {
	var m StateMachine
	samples := make([]bool, 500)
	for i := range samples {
		samples[i] = i%2 == 1
	}

	assert.Empty(t, feed(&m, samples, 0, 1))
}

func TestToggleJustUnderIntervalNeverReports(t *testing.T) {
	var m StateMachine
	var samples []bool
	for i := 0; i < 20; i++ {
		samples = append(samples, signal(false, 20, true, int(DebounceInterval))...)
	}

	// Each true run lasts 15 polls, covering only 14ms of elapsed time.
	assert.Empty(t, feed(&m, samples, 0, 1))
}

func TestHeldConditionReportsOnce(t *testing.T) {
	var m StateMachine
	samples := signal(false, 20, true, 1000)

	edges := feed(&m, samples, 0, 1)

	assert.Len(t, edges, 1)
	assert.Equal(t, PhaseWaitInactive, m.Phase())
}

func TestStartingTrueDoesNotReport(t *testing.T) {
	var m StateMachine
	samples := signal(true, 100)
	assert.Empty(t, feed(&m, samples, 0, 1))

	// Release long enough, then press again.
	samples = signal(false, 20, true, 20)
	edges := feed(&m, samples, 100, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, 20+int(DebounceInterval), edges[0])
}

func TestExactBoundary(t *testing.T) {
	var m StateMachine
	feed(&m, signal(false, 16), 0, 1)
	require.Equal(t, PhaseArmed, m.Phase())

	assert.False(t, m.ObserveEdge(true, 100))
	assert.False(t, m.ObserveEdge(true, 100+DebounceInterval-1), "one millisecond short")
	assert.True(t, m.ObserveEdge(true, 100+DebounceInterval), "reports when elapsed equals the interval")
}

func TestInactiveBoundary(t *testing.T) {
	var m StateMachine
	assert.False(t, m.ObserveEdge(false, 0))
	assert.False(t, m.ObserveEdge(false, DebounceInterval-1))
	assert.Equal(t, PhaseSettleInactive, m.Phase())
	assert.False(t, m.ObserveEdge(false, DebounceInterval))
	assert.Equal(t, PhaseArmed, m.Phase())
}

func TestBounceDuringPressRestartsTimer(t *testing.T) {
	var m StateMachine
	feed(&m, signal(false, 20), 0, 1)

	// true at 20..29, glitch at 30, true from 31.
	samples := signal(true, 10, false, 1, true, 30)
	edges := feed(&m, samples, 20, 1)

	require.Len(t, edges, 1)
	assert.Equal(t, 11+int(DebounceInterval), edges[0], "timer restarts at the first sample after the glitch")
}

func TestBounceDuringReleaseRestartsTimer(t *testing.T) {
	var m StateMachine
	feed(&m, signal(false, 20, true, 20), 0, 1)
	require.Equal(t, PhaseWaitInactive, m.Phase())

	// A short release does not re-arm the machine.
	samples := signal(false, 5, true, 50)
	assert.Empty(t, feed(&m, samples, 40, 1))

	samples = signal(false, 30, true, 50)
	assert.Len(t, feed(&m, samples, 95, 1), 1)
}

func TestWraparound(t *testing.T) {
	var m StateMachine
	// False from 65500, true from 65530 across the wrap to well past 10.
	samples := signal(false, 30, true, 60)

	edges := feed(&m, samples, 65500, 1)

	require.Len(t, edges, 1)
	at := Millis(65500) + Millis(edges[0])
	assert.Equal(t, DebounceInterval, at.Since(65530))
	assert.Equal(t, Millis(9), at)
}

func TestWraparoundSinceArithmetic(t *testing.T) {
	assert.Equal(t, Millis(16), Millis(10).Since(65530))
	assert.Equal(t, Millis(0), Millis(7).Since(7))
}

func TestCoarsePollingReportsOnFirstPollPastInterval(t *testing.T) {
	var m StateMachine
	// Polled every 10ms: false at 0..40, true from 50.
	samples := signal(false, 5, true, 5)

	edges := feed(&m, samples, 0, 10)

	require.Len(t, edges, 1)
	assert.Equal(t, 7, edges[0], "first poll at or after 15ms into the run is at 70ms")
}

// TestAtMostOncePerRun checks that random signals never produce more than one
// edge per maximal true run, and never before the run has lasted the interval.
func TestAtMostOncePerRun(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		var samples []bool
		level := rng.Intn(2) == 1
		for len(samples) < 2000 {
			n := 1 + rng.Intn(40)
			samples = append(samples, signal(level, n)...)
			level = !level
		}

		var m StateMachine
		start := Millis(rng.Intn(65536))
		edges := feed(&m, samples, start, 1)

		reported := make(map[int]bool)
		for _, e := range edges {
			require.True(t, samples[e], "edge on a false sample")

			runStart := e
			for runStart > 0 && samples[runStart-1] {
				runStart--
			}
			assert.False(t, reported[runStart], "second edge in run starting at %d", runStart)
			reported[runStart] = true
			assert.GreaterOrEqual(t, e-runStart, int(DebounceInterval), "edge %d came early", e)
		}
	}
}

func TestReset(t *testing.T) {
	var m StateMachine
	feed(&m, signal(false, 20, true, 3), 0, 1)
	require.Equal(t, PhaseSettleActive, m.Phase())

	m.Reset()

	assert.Equal(t, PhaseWaitInactive, m.Phase())
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseWaitInactive, "WAIT_INACTIVE"},
		{PhaseSettleInactive, "SETTLE_INACTIVE"},
		{PhaseArmed, "ARMED"},
		{PhaseSettleActive, "SETTLE_ACTIVE"},
		{Phase(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}
}
