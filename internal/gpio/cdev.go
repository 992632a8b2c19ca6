//go:build linux

package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// CdevInput reads pins through the Linux GPIO character device.
type CdevInput struct {
	chip  *gpiocdev.Chip
	lines map[int]*cdevLine
	err   error
}

type cdevLine struct {
	line *gpiocdev.Line
	last bool
}

// NewCdevInput opens the named GPIO chip, e.g. "gpiochip0".
func NewCdevInput(chip string) (*CdevInput, error) {
	if chip == "" {
		chip = DefaultChip
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &CdevInput{
		chip:  c,
		lines: make(map[int]*cdevLine),
	}, nil
}

// Configure requests pin as an input, or reconfigures it if already held.
// Failures are logged and kept in Err; reads of a pin that failed to
// configure return LOW.
func (c *CdevInput) Configure(pin int, pullUp bool) {
	bias := gpiocdev.WithBiasDisabled
	if pullUp {
		bias = gpiocdev.WithPullUp
	}

	if l, ok := c.lines[pin]; ok {
		if err := l.line.Reconfigure(gpiocdev.AsInput, bias); err != nil {
			c.fail(fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		return
	}

	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, bias)
	if err != nil {
		c.fail(fmt.Errorf("request pin %d: %w", pin, err))
		return
	}
	// A pulled-up pin floats HIGH; without bias assume LOW until read.
	c.lines[pin] = &cdevLine{line: line, last: pullUp}
	log.Debugf("gpio: pin %d configured as input (pull-up=%v)", pin, pullUp)
}

// Read returns the raw level of pin. On error it returns the last good level,
// or LOW if the pin was never configured, and records the error in Err.
func (c *CdevInput) Read(pin int) bool {
	l, ok := c.lines[pin]
	if !ok {
		c.fail(fmt.Errorf("read pin %d: not configured", pin))
		return false
	}

	v, err := l.line.Value()
	if err != nil {
		c.fail(fmt.Errorf("read pin %d: %w", pin, err))
		return l.last
	}
	l.last = v != 0
	return l.last
}

func (c *CdevInput) fail(err error) {
	if c.err == nil || c.err.Error() != err.Error() {
		log.Errorf("gpio: %v", err)
	}
	c.err = err
}

// Err returns the most recent error.
func (c *CdevInput) Err() error {
	return c.err
}

// Close releases all requested lines and the chip.
func (c *CdevInput) Close() error {
	var errs []error

	for pin, l := range c.lines {
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	c.lines = nil
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
