//go:build linux

package hw

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// quadrature transition table indexed by prev<<2|curr, where a state is
// A<<1|B. Invalid (double-step) transitions decode as 0.
var quadTable = [16]int{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// EncoderSource reads the rotary encoder and its push button through the
// Linux GPIO character device. The touch panel sits on a separate bus and
// is composed in by the caller; Read reports it untouched.
type EncoderSource struct {
	lineA *gpiocdev.Line
	lineB *gpiocdev.Line
	btn   *gpiocdev.Line

	levelA  atomic.Int32
	levelB  atomic.Int32
	state   atomic.Int32 // last quadrature state, A<<1|B
	delta   atomic.Int64
	pressed atomic.Bool
}

// NewEncoderSource requests the three encoder lines on the given chip.
func NewEncoderSource(chip string, pinA, pinB, pinBtn int) (*EncoderSource, error) {
	s := &EncoderSource{}

	lineA, err := gpiocdev.RequestLine(chip, pinA,
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(ev gpiocdev.LineEvent) {
			s.onEdge(&s.levelA, ev)
		}))
	if err != nil {
		return nil, fmt.Errorf("request encoder A pin %d: %w", pinA, err)
	}
	s.lineA = lineA

	lineB, err := gpiocdev.RequestLine(chip, pinB,
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(ev gpiocdev.LineEvent) {
			s.onEdge(&s.levelB, ev)
		}))
	if err != nil {
		_ = lineA.Close()
		return nil, fmt.Errorf("request encoder B pin %d: %w", pinB, err)
	}
	s.lineB = lineB

	btn, err := gpiocdev.RequestLine(chip, pinBtn,
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(5*time.Millisecond),
		gpiocdev.WithEventHandler(func(ev gpiocdev.LineEvent) {
			// Active low: pressed shorts the line to ground.
			s.pressed.Store(ev.Type == gpiocdev.LineEventFallingEdge)
		}))
	if err != nil {
		_ = lineA.Close()
		_ = lineB.Close()
		return nil, fmt.Errorf("request encoder button pin %d: %w", pinBtn, err)
	}
	s.btn = btn

	// Seed levels so the first edge decodes against real state.
	if v, err := lineA.Value(); err == nil {
		s.levelA.Store(int32(v))
	}
	if v, err := lineB.Value(); err == nil {
		s.levelB.Store(int32(v))
	}
	s.state.Store(s.levelA.Load()<<1 | s.levelB.Load())

	return s, nil
}

func (s *EncoderSource) onEdge(level *atomic.Int32, ev gpiocdev.LineEvent) {
	if ev.Type == gpiocdev.LineEventRisingEdge {
		level.Store(1)
	} else {
		level.Store(0)
	}
	curr := s.levelA.Load()<<1 | s.levelB.Load()
	prev := s.state.Swap(curr)
	s.delta.Add(int64(quadTable[prev<<2|curr]))
}

// Read drains the accumulated tick delta and reports the button level.
func (s *EncoderSource) Read() (Sample, error) {
	return Sample{
		EncoderDelta: int(s.delta.Swap(0)),
		ButtonDown:   s.pressed.Load(),
	}, nil
}

// Close releases the GPIO lines.
func (s *EncoderSource) Close() error {
	var firstErr error
	for _, l := range []*gpiocdev.Line{s.lineA, s.lineB, s.btn} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
