// Package button debounces a single pushbutton on a digital input pin.
//
// A Button is not safe for concurrent use. Its wait methods busy-poll the pin
// and never return until the awaited button action happens; callers needing a
// timeout or cancellation should use the non-blocking edge queries instead.
package button

import "github.com/sweeney/pushbutton/internal/logic"

// Level is a raw electrical level on a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns "HIGH" or "LOW".
func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// SettleDelay is how long WaitForPress and WaitForRelease let the pin settle
// before re-checking it.
const SettleDelay logic.Millis = 10

// DigitalInput configures and reads raw pin levels.
type DigitalInput interface {
	// Configure sets pin as an input, enabling the internal pull-up if asked.
	Configure(pin int, pullUp bool)

	// Read returns the raw electrical level of pin (true = HIGH).
	Read(pin int) bool
}

// Clock provides a wrapping millisecond timestamp.
type Clock interface {
	Now() logic.Millis
}

// Config identifies the pin a button is wired to and how.
type Config struct {
	Pin int
	// PullUp enables the internal pull-up resistor during pin setup.
	PullUp bool
	// DefaultState is the level the pin reads when the button is released.
	DefaultState Level
}

// DefaultConfig returns the common wiring: button to ground, pull-up enabled,
// so the pin idles HIGH and reads LOW while pressed.
func DefaultConfig(pin int) Config {
	return Config{Pin: pin, PullUp: true, DefaultState: High}
}

type initState uint8

const (
	uninitialized initState = iota
	ready
)

// Button tracks one pushbutton.
type Button struct {
	in    DigitalInput
	clock Clock
	cfg   Config
	init  initState

	press   logic.StateMachine
	release logic.StateMachine
}

// New creates a Button. The pin is not touched until the first operation.
func New(in DigitalInput, clock Clock, cfg Config) *Button {
	return &Button{
		in:    in,
		clock: clock,
		cfg:   cfg,
	}
}

// Config returns the button's wiring configuration.
func (b *Button) Config() Config {
	return b.cfg
}

// Pin returns the pin number.
func (b *Button) Pin() int {
	return b.cfg.Pin
}

// Reinit configures the pin again, e.g. after something else changed its mode.
// Normally this is not needed; the pin is configured on first use.
func (b *Button) Reinit() {
	b.init = ready
	b.in.Configure(b.cfg.Pin, b.cfg.PullUp)
}

func (b *Button) ensureInit() {
	if b.init == uninitialized {
		b.Reinit()
	}
}

// pressed reads the pin once and maps the level to a logical pressed state.
func (b *Button) pressed() bool {
	return Level(b.in.Read(b.cfg.Pin)) != b.cfg.DefaultState
}

// IsPressed reports whether the button is pressed right now, without debouncing.
func (b *Button) IsPressed() bool {
	b.ensureInit()
	return b.pressed()
}

// GetSingleDebouncedPress returns true once for each debounced transition from
// released to pressed.
func (b *Button) GetSingleDebouncedPress() bool {
	b.ensureInit()
	return b.press.ObserveEdge(b.pressed(), b.clock.Now())
}

// GetSingleDebouncedRelease returns true once for each debounced transition
// from pressed to released.
func (b *Button) GetSingleDebouncedRelease() bool {
	b.ensureInit()
	return b.release.ObserveEdge(!b.pressed(), b.clock.Now())
}

// WaitForPress blocks until the button is pressed and still pressed after
// SettleDelay.
func (b *Button) WaitForPress() {
	b.waitFor(true)
}

// WaitForRelease blocks until the button is released and still released after
// SettleDelay.
func (b *Button) WaitForRelease() {
	b.waitFor(false)
}

// WaitForButton blocks until the button is pressed and then released.
func (b *Button) WaitForButton() {
	b.WaitForPress()
	b.WaitForRelease()
}

func (b *Button) waitFor(pressed bool) {
	b.ensureInit()
	for {
		for b.pressed() != pressed {
		}
		b.settle()
		if b.pressed() == pressed {
			return
		}
	}
}

// settle spins on the clock for SettleDelay.
func (b *Button) settle() {
	start := b.clock.Now()
	for b.clock.Now().Since(start) < SettleDelay {
	}
}

// Phases returns the current phase of the press and release state machines.
func (b *Button) Phases() (press, release logic.Phase) {
	return b.press.Phase(), b.release.Phase()
}
