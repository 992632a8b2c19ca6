package gpio

// FakeInput is a test double that returns scripted raw pin levels.
type FakeInput struct {
	// Samples contains scripted raw levels (true = HIGH).
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Configured records every Configure call in order.
	Configured []ConfigureCall

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// Error, if set, is returned by Err, as a driver does after a failed
	// Configure or Read.
	Error error
}

// ConfigureCall records the arguments of one Configure call.
type ConfigureCall struct {
	Pin    int
	PullUp bool
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Configure records the call.
func (f *FakeInput) Configure(pin int, pullUp bool) {
	f.Configured = append(f.Configured, ConfigureCall{Pin: pin, PullUp: pullUp})
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
// With no samples it reads HIGH, like a pulled-up idle pin.
func (f *FakeInput) Read(pin int) bool {
	f.Reads++
	if len(f.Samples) == 0 {
		return true
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample
}

// Append adds n copies of level to the script.
func (f *FakeInput) Append(level bool, n int) *FakeInput {
	for i := 0; i < n; i++ {
		f.Samples = append(f.Samples, level)
	}
	return f
}

// Err returns Error.
func (f *FakeInput) Err() error {
	return f.Error
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the input to the beginning of samples.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Reads = 0
	f.Configured = nil
	f.Closed = false
}
