// Package gpio provides raw digital input for a pushbutton pin.
// The real implementations use the Linux GPIO character device (go-gpiocdev)
// or periph.io. The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"io"
)

// DefaultPin is the BCM pin the button is wired to by default.
const DefaultPin = 17

// DefaultChip is the GPIO character device used by the cdev backend.
const DefaultChip = "gpiochip0"

// Backend names accepted by Open.
const (
	BackendCdev   = "gpiocdev"
	BackendPeriph = "periph"
)

// Input configures and reads raw pin levels and holds hardware resources.
// It satisfies button.DigitalInput.
type Input interface {
	// Configure sets pin as an input, enabling the internal pull-up if asked.
	Configure(pin int, pullUp bool)
	// Read returns the raw electrical level of pin (true = HIGH).
	Read(pin int) bool

	io.Closer

	// Err returns the most recent driver error, if any.
	Err() error
}

// Open returns the Input for the named backend.
func Open(backend, chip string) (Input, error) {
	switch backend {
	case BackendCdev, "":
		in, err := NewCdevInput(chip)
		if err != nil {
			return nil, err
		}
		return in, nil
	case BackendPeriph:
		in, err := NewPeriphInput()
		if err != nil {
			return nil, err
		}
		return in, nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}
