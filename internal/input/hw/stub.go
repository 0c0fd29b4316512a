//go:build !linux

package hw

import "errors"

// EncoderSource is only available on Linux.
type EncoderSource struct{}

// NewEncoderSource returns an error on non-Linux platforms.
func NewEncoderSource(chip string, pinA, pinB, pinBtn int) (*EncoderSource, error) {
	return nil, errors.New("hw: gpio input requires linux")
}

func (s *EncoderSource) Read() (Sample, error) {
	return Sample{}, errors.New("hw: not supported")
}

func (s *EncoderSource) Close() error { return nil }
