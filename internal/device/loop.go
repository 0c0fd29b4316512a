package device

import (
	"context"
	"time"

	"dialbed/internal/input"
	"dialbed/internal/input/hw"
	"dialbed/internal/logger"
	"dialbed/internal/nav"
)

// InputTick is the sampling period of the device loop. Raw encoder ticks
// accumulate in the source between reads, so nothing is lost between
// samples.
const InputTick = 10 * time.Millisecond

// Loop samples the input hardware, classifies the raw transitions and
// feeds the resulting events to the navigation machine, one at a time in
// order. It also drives the brightness policy: any raw input counts as
// activity, and the computed level is applied every tick.
type Loop struct {
	src    hw.Source
	cls    input.Classifier
	nav    *nav.Machine
	bright *Brightness
	log    *logger.Logger

	now  func() time.Time
	tick time.Duration

	prevTouch  hw.Touch
	prevButton bool
}

func NewLoop(src hw.Source, machine *nav.Machine, bright *Brightness, log *logger.Logger) *Loop {
	return &Loop{
		src:    src,
		nav:    machine,
		bright: bright,
		log:    log,
		now:    time.Now,
		tick:   InputTick,
	}
}

// Run samples until ctx is canceled, then closes the source.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		if err := l.src.Close(); err != nil {
			l.log.Warnw("close input source failed", "err", err)
		}
	}()

	t := time.NewTicker(l.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.step(ctx)
		}
	}
}

// step processes one sample. Touch and button are level inputs; the loop
// synthesizes the edges the classifier wants.
func (l *Loop) step(ctx context.Context) {
	s, err := l.src.Read()
	if err != nil {
		l.log.Warnw("input read failed", "err", err)
		return
	}
	at := l.now()

	var evs []input.Event
	if s.EncoderDelta != 0 {
		evs = append(evs, l.cls.Rotate(s.EncoderDelta, at)...)
	}
	if s.Touch.Touched != l.prevTouch.Touched {
		ts := input.TouchSample{
			X:        s.Touch.X,
			Y:        s.Touch.Y,
			Pressed:  s.Touch.Touched,
			Released: !s.Touch.Touched,
			At:       at,
		}
		if ev, ok := l.cls.Touch(ts); ok {
			evs = append(evs, ev)
		}
	}
	l.prevTouch = s.Touch
	if s.ButtonDown != l.prevButton {
		if ev, ok := l.cls.Button(s.ButtonDown, at); ok {
			evs = append(evs, ev)
		}
		l.prevButton = s.ButtonDown
	}
	if ev, ok := l.cls.Tick(at); ok {
		evs = append(evs, ev)
	}

	if s.EncoderDelta != 0 || s.Touch.Touched || s.ButtonDown {
		l.bright.Activity()
	}
	for _, ev := range evs {
		l.nav.Handle(ctx, ev)
	}
	l.bright.Apply()
}
