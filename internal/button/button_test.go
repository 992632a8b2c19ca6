package button

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/pushbutton/internal/gpio"
	"github.com/sweeney/pushbutton/internal/logic"
)

// Raw levels for a button wired to ground with a pull-up (idle HIGH).
const (
	up   = true
	down = false
)

const testPin = 12

func newTestButton(in *gpio.FakeInput) (*Button, *StepClock) {
	clk := &StepClock{Step: 1}
	return New(in, clk, DefaultConfig(testPin)), clk
}

// pollPress calls GetSingleDebouncedPress n times and returns the call
// indices that reported an edge.
func pollPress(b *Button, n int) []int {
	var edges []int
	for i := 0; i < n; i++ {
		if b.GetSingleDebouncedPress() {
			edges = append(edges, i)
		}
	}
	return edges
}

func pollRelease(b *Button, n int) []int {
	var edges []int
	for i := 0; i < n; i++ {
		if b.GetSingleDebouncedRelease() {
			edges = append(edges, i)
		}
	}
	return edges
}

func TestNewDoesNotTouchPin(t *testing.T) {
	in := gpio.NewFakeInput(up)
	New(in, &StepClock{}, DefaultConfig(testPin))

	assert.Empty(t, in.Configured)
	assert.Zero(t, in.Reads)
}

func TestPinConfiguredOnceOnFirstUse(t *testing.T) {
	in := gpio.NewFakeInput(up)
	b, _ := newTestButton(in)

	b.IsPressed()
	b.GetSingleDebouncedPress()
	b.GetSingleDebouncedRelease()
	b.IsPressed()

	require.Len(t, in.Configured, 1)
	assert.Equal(t, gpio.ConfigureCall{Pin: testPin, PullUp: true}, in.Configured[0])
	assert.Equal(t, 4, in.Reads)
}

func TestPinConfiguredBeforeFirstRead(t *testing.T) {
	for name, op := range map[string]func(*Button){
		"IsPressed":                 func(b *Button) { b.IsPressed() },
		"GetSingleDebouncedPress":   func(b *Button) { b.GetSingleDebouncedPress() },
		"GetSingleDebouncedRelease": func(b *Button) { b.GetSingleDebouncedRelease() },
		"WaitForRelease":            func(b *Button) { b.WaitForRelease() },
	} {
		t.Run(name, func(t *testing.T) {
			in := gpio.NewFakeInput(up)
			b, _ := newTestButton(in)
			op(b)
			assert.Len(t, in.Configured, 1)
		})
	}
}

func TestReinitConfiguresAgain(t *testing.T) {
	in := gpio.NewFakeInput(up)
	cfg := Config{Pin: 3, PullUp: false, DefaultState: Low}
	b := New(in, &StepClock{}, cfg)

	b.IsPressed()
	b.Reinit()
	b.IsPressed()

	require.Len(t, in.Configured, 2)
	assert.Equal(t, gpio.ConfigureCall{Pin: 3, PullUp: false}, in.Configured[1])
}

func TestIsPressed(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		raw     bool
		pressed bool
	}{
		{"default high, raw low", Config{DefaultState: High, PullUp: true}, false, true},
		{"default high, raw high", Config{DefaultState: High, PullUp: true}, true, false},
		{"default low, raw high", Config{DefaultState: Low}, true, true},
		{"default low, raw low", Config{DefaultState: Low}, false, false},
		{"pull-up does not invert", Config{DefaultState: Low, PullUp: true}, true, true},
		{"no pull-up default high", Config{DefaultState: High, PullUp: false}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(gpio.NewFakeInput(tt.raw), &StepClock{}, tt.cfg)
			assert.Equal(t, tt.pressed, b.IsPressed())
		})
	}
}

func TestIsPressedIsNotDebounced(t *testing.T) {
	in := gpio.NewFakeInput(up, down, up, down)
	b, _ := newTestButton(in)

	assert.False(t, b.IsPressed())
	assert.True(t, b.IsPressed())
	assert.False(t, b.IsPressed())
	assert.True(t, b.IsPressed())
}

func TestSingleDebouncedPressWhileHeld(t *testing.T) {
	in := gpio.NewFakeInput().Append(up, 20).Append(down, 500)
	b, _ := newTestButton(in)

	edges := pollPress(b, 520)

	require.Len(t, edges, 1, "held button must report exactly once")
	assert.Equal(t, 20+int(logic.DebounceInterval), edges[0])
}

func TestSingleDebouncedPressAfterReleaseCycle(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(up, 20).Append(down, 40).
		Append(up, 40).Append(down, 40)
	b, _ := newTestButton(in)

	edges := pollPress(b, 140)

	assert.Equal(t, []int{35, 115}, edges)
}

func TestSingleDebouncedPressIgnoresBounce(t *testing.T) {
	in := gpio.NewFakeInput().Append(up, 20)
	for i := 0; i < 30; i++ {
		in.Append(down, 3).Append(up, 2)
	}
	b, _ := newTestButton(in)

	assert.Empty(t, pollPress(b, 170))
}

func TestSingleDebouncedPressButtonHeldAtStartup(t *testing.T) {
	in := gpio.NewFakeInput().Append(down, 100).Append(up, 30).Append(down, 30)
	b, _ := newTestButton(in)

	edges := pollPress(b, 160)

	assert.Equal(t, []int{145}, edges, "press only counts after a settled release")
}

func TestSingleDebouncedRelease(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(down, 20).Append(up, 40).
		Append(down, 40).Append(up, 40)
	b, _ := newTestButton(in)

	edges := pollRelease(b, 140)

	assert.Equal(t, []int{35, 115}, edges)
}

func TestSingleDebouncedReleaseDefaultLow(t *testing.T) {
	// Button to VCC with an external pull-down: idle LOW, pressed HIGH.
	in := gpio.NewFakeInput().Append(true, 20).Append(false, 40)
	b := New(in, &StepClock{Step: 1}, Config{Pin: testPin, DefaultState: Low})

	assert.Equal(t, []int{35}, pollRelease(b, 60))
}

func TestPressAndReleaseMachinesAreIndependent(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(up, 20).Append(down, 40).Append(up, 40)
	clk := &StepClock{Step: 1}
	b := New(in, clk, DefaultConfig(testPin))

	var presses, releases []logic.Millis
	for i := 0; i < 100; i++ {
		// One read per poll; both queries see the same sample sequence
		// through separate reads, so interleave on alternate polls.
		now := clk.T
		if i%2 == 0 {
			if b.GetSingleDebouncedPress() {
				presses = append(presses, now)
			}
		} else if b.GetSingleDebouncedRelease() {
			releases = append(releases, now)
		}
	}

	assert.Len(t, presses, 1)
	assert.Len(t, releases, 1)
	assert.Less(t, presses[0], releases[0])
}

func TestWaitForPress(t *testing.T) {
	in := gpio.NewFakeInput().Append(up, 50).Append(down, 50)
	b, clk := newTestButton(in)

	b.WaitForPress()

	// 50 idle reads, the first pressed read, and the re-check after settling.
	assert.Equal(t, 52, in.Reads)
	assert.GreaterOrEqual(t, clk.T, SettleDelay)
}

func TestWaitForPressRetriesAfterGlitch(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(up, 5).Append(down, 1).
		Append(up, 5).Append(down, 10)
	b, _ := newTestButton(in)

	b.WaitForPress()

	assert.Equal(t, 13, in.Reads)
}

func TestWaitForRelease(t *testing.T) {
	in := gpio.NewFakeInput().Append(down, 30).Append(up, 10)
	b, _ := newTestButton(in)

	b.WaitForRelease()

	assert.Equal(t, 32, in.Reads)
}

func TestWaitForButtonNeedsPressThenRelease(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(up, 50).Append(down, 50).Append(up, 50)
	b, _ := newTestButton(in)

	b.WaitForButton()

	assert.Equal(t, 102, in.Reads)
	assert.True(t, in.Samples[in.Reads-1], "returned while released")
}

func TestWaitForButtonIgnoresReleaseWithoutPress(t *testing.T) {
	in := gpio.NewFakeInput().
		Append(up, 1000).Append(down, 20).Append(up, 10)
	b, _ := newTestButton(in)

	b.WaitForButton()

	// Must have consumed the whole idle stretch and the press.
	assert.Equal(t, 1022, in.Reads)
}

func TestSettleSurvivesClockWrap(t *testing.T) {
	in := gpio.NewFakeInput().Append(down, 10)
	clk := &StepClock{T: 65530, Step: 1}
	b := New(in, clk, DefaultConfig(testPin))

	b.WaitForPress()

	assert.Equal(t, 2, in.Reads)
	assert.Less(t, clk.T, logic.Millis(100), "clock wrapped instead of spinning a full cycle")
}

func TestAccessors(t *testing.T) {
	cfg := Config{Pin: 7, PullUp: true, DefaultState: Low}
	b := New(gpio.NewFakeInput(), &StepClock{}, cfg)

	assert.Equal(t, 7, b.Pin())
	assert.Equal(t, cfg, b.Config())
	assert.Equal(t, Config{Pin: 5, PullUp: true, DefaultState: High}, DefaultConfig(5))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "HIGH", High.String())
	assert.Equal(t, "LOW", Low.String())
}

func TestSystemClockAdvances(t *testing.T) {
	c := NewSystemClock()
	a := c.Now()
	b := c.Now()
	assert.GreaterOrEqual(t, b, a)
}

func TestPhases(t *testing.T) {
	in := gpio.NewFakeInput().Append(up, 20)
	b, _ := newTestButton(in)

	press, release := b.Phases()
	assert.Equal(t, logic.PhaseWaitInactive, press)
	assert.Equal(t, logic.PhaseWaitInactive, release)

	pollPress(b, 20)
	press, release = b.Phases()
	assert.Equal(t, logic.PhaseArmed, press)
	assert.Equal(t, logic.PhaseWaitInactive, release, "release machine untouched")
}
