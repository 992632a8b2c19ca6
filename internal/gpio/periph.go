package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphInput reads pins through periph.io, addressed by BCM number.
type PeriphInput struct {
	pins map[int]pgpio.PinIO
	err  error
}

// NewPeriphInput initialises the periph host drivers.
func NewPeriphInput() (*PeriphInput, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return &PeriphInput{pins: make(map[int]pgpio.PinIO)}, nil
}

// Configure sets pin as an input with the requested pull.
// Failures are logged and kept in Err.
func (p *PeriphInput) Configure(pin int, pullUp bool) {
	io := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if io == nil {
		p.fail(fmt.Errorf("pin %d: no such GPIO", pin))
		return
	}

	pull := pgpio.Float
	if pullUp {
		pull = pgpio.PullUp
	}
	if err := io.In(pull, pgpio.NoEdge); err != nil {
		p.fail(fmt.Errorf("configure pin %d: %w", pin, err))
		return
	}
	p.pins[pin] = io
	log.Debugf("gpio: %s configured as input (pull=%s)", io.Name(), pull)
}

// Read returns the raw level of pin. An unconfigured pin reads LOW and
// records the error in Err.
func (p *PeriphInput) Read(pin int) bool {
	io, ok := p.pins[pin]
	if !ok {
		p.fail(fmt.Errorf("read pin %d: not configured", pin))
		return false
	}
	return io.Read() == pgpio.High
}

func (p *PeriphInput) fail(err error) {
	if p.err == nil || p.err.Error() != err.Error() {
		log.Errorf("gpio: %v", err)
	}
	p.err = err
}

// Err returns the most recent error.
func (p *PeriphInput) Err() error {
	return p.err
}

// Close releases the pins back to their default state.
func (p *PeriphInput) Close() error {
	var errs []error
	for pin, io := range p.pins {
		if err := io.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt pin %d: %w", pin, err))
		}
	}
	p.pins = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
