//go:build !linux

package gpio

import "errors"

// CdevInput is not available on non-Linux platforms.
type CdevInput struct{}

// NewCdevInput returns an error on non-Linux platforms.
func NewCdevInput(chip string) (*CdevInput, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

// Configure does nothing on non-Linux platforms.
func (c *CdevInput) Configure(pin int, pullUp bool) {}

// Read always reads LOW on non-Linux platforms.
func (c *CdevInput) Read(pin int) bool {
	return false
}

// Err reports that the backend is unsupported.
func (c *CdevInput) Err() error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *CdevInput) Close() error {
	return nil
}
