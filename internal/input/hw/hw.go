// Package hw abstracts the raw input hardware: the quadrature rotary
// encoder, its push button and the touch panel. The real implementation
// reads GPIO edge events via the Linux character device; the fake replays
// scripted samples for tests.
package hw

// Touch is the instantaneous touch panel state.
type Touch struct {
	X, Y    int
	Touched bool
}

// Sample is one reading of all raw inputs.
type Sample struct {
	// EncoderDelta is the signed raw tick count since the previous Read.
	EncoderDelta int
	// ButtonDown is the encoder button level.
	ButtonDown bool
	// Touch is the touch panel state.
	Touch Touch
}

// Source supplies raw input samples to the device loop.
type Source interface {
	// Read returns the current raw input state. It must not block.
	Read() (Sample, error)

	// Close releases hardware resources.
	Close() error
}
