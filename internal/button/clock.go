package button

import (
	"time"

	"github.com/sweeney/pushbutton/internal/logic"
)

// SystemClock is a monotonic millisecond clock truncated to 16 bits.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock counting from now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns milliseconds since the clock was created, modulo 65536.
func (c *SystemClock) Now() logic.Millis {
	return logic.Millis(time.Since(c.start).Milliseconds())
}

// StepClock is a test clock that advances by Step on every call to Now.
type StepClock struct {
	T    logic.Millis
	Step logic.Millis
}

// Now returns the current time and then advances it.
func (c *StepClock) Now() logic.Millis {
	t := c.T
	c.T += c.Step
	return t
}
