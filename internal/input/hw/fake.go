package hw

// FakeSource replays scripted samples. Once the script is exhausted the
// last sample repeats, so a loop can keep ticking past the end.
type FakeSource struct {
	Samples []Sample
	index   int

	// Closed tracks whether Close was called.
	Closed bool

	// ReadError, if set, is returned by Read.
	ReadError error
}

// NewFakeSource creates a FakeSource with the given script.
func NewFakeSource(samples []Sample) *FakeSource {
	return &FakeSource{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeSource) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Sample{}, nil
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
