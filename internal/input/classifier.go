package input

import (
	"time"

	"dialbed/internal/models"
)

// DetentTicks is the number of raw encoder ticks per mechanical click.
const DetentTicks = 4

// Center-gesture duration bands, half-open, checked in order.
const (
	TapMax           = 300 * time.Millisecond  // < → dim toggle
	PowerMax         = 1000 * time.Millisecond // < → power toggle
	NightOverrideMax = 3000 * time.Millisecond // < → night override; ≥ → settings
	TapDebounce      = 250 * time.Millisecond
)

// ButtonHoldAfter is how long the encoder button must stay down before the
// press counts as a hold instead of a press.
const ButtonHoldAfter = 1000 * time.Millisecond

// Classifier converts raw input into Events. It is not safe for concurrent
// use; the device loop owns it.
type Classifier struct {
	acc int // raw ticks not yet consumed by a full detent

	gestureActive bool
	gestureStart  time.Time
	lastAccepted  time.Time

	btnDown   bool
	btnStart  time.Time
	holdFired bool
}

// Rotate feeds a signed raw tick delta and returns one StepAdjust event per
// consumed detent. The remainder keeps its sign, so for any input sequence
// sum(deltas) == sum(emitted steps)*DetentTicks + Remainder().
func (c *Classifier) Rotate(delta int, at time.Time) []Event {
	c.acc += delta
	var evs []Event
	for c.acc >= DetentTicks {
		c.acc -= DetentTicks
		evs = append(evs, Event{Kind: KindStepAdjust, Steps: 1, At: at})
	}
	for c.acc <= -DetentTicks {
		c.acc += DetentTicks
		evs = append(evs, Event{Kind: KindStepAdjust, Steps: -1, At: at})
	}
	return evs
}

// Remainder returns the raw ticks accumulated toward the next detent.
func (c *Classifier) Remainder() int { return c.acc }

// TouchSample is one touch transition. Pressed and Released mark edges, not
// levels; a sample with neither set is ignored.
type TouchSample struct {
	X, Y              int
	Pressed, Released bool
	At                time.Time
}

// Touch classifies one touch sample. Presses outside the center region fire
// immediately; center presses start a gesture that is classified by duration
// on release.
func (c *Classifier) Touch(s TouchSample) (Event, bool) {
	if s.Pressed {
		return c.touchPress(s)
	}
	if s.Released {
		return c.touchRelease(s)
	}
	return Event{}, false
}

func (c *Classifier) touchPress(s TouchSample) (Event, bool) {
	switch region(s.X, s.Y) {
	case regionCenter:
		c.gestureActive = true
		c.gestureStart = s.At
		return Event{}, false
	case regionArc:
		ratio, ok := arcRatio(s.X, s.Y)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: KindArcSet, Ratio: ratio, At: s.At}, true
	case regionBottomStrip:
		return Event{Kind: KindOpenSettings, At: s.At}, true
	case regionLeft:
		return Event{Kind: KindSelectZone, Zone: models.ZoneBed, At: s.At}, true
	default: // regionRight
		return Event{Kind: KindSelectZone, Zone: models.ZonePillow, At: s.At}, true
	}
}

func (c *Classifier) touchRelease(s TouchSample) (Event, bool) {
	if !c.gestureActive {
		return Event{}, false
	}
	c.gestureActive = false

	// Releases too close to the previous accepted one are chatter; the
	// gesture is consumed but emits nothing.
	if !c.lastAccepted.IsZero() && s.At.Sub(c.lastAccepted) < TapDebounce {
		return Event{}, false
	}

	d := s.At.Sub(c.gestureStart)
	c.lastAccepted = s.At

	switch {
	case d < TapMax:
		return Event{Kind: KindToggleDim, At: s.At}, true
	case d < PowerMax:
		return Event{Kind: KindTogglePower, At: s.At}, true
	case d < NightOverrideMax:
		return Event{Kind: KindToggleNightOverride, At: s.At}, true
	default:
		return Event{Kind: KindOpenSettings, At: s.At}, true
	}
}

// Button feeds the encoder button level. A press shorter than
// ButtonHoldAfter emits ButtonPress on release; a longer one emits
// ButtonHold (from Tick while still held, or here if Tick missed it).
func (c *Classifier) Button(pressed bool, at time.Time) (Event, bool) {
	switch {
	case pressed && !c.btnDown:
		c.btnDown = true
		c.btnStart = at
		c.holdFired = false
	case !pressed && c.btnDown:
		c.btnDown = false
		if c.holdFired {
			return Event{}, false
		}
		if at.Sub(c.btnStart) >= ButtonHoldAfter {
			return Event{Kind: KindButtonHold, At: at}, true
		}
		return Event{Kind: KindButtonPress, At: at}, true
	}
	return Event{}, false
}

// Tick fires the level-triggered hold while the button is still down.
func (c *Classifier) Tick(at time.Time) (Event, bool) {
	if c.btnDown && !c.holdFired && at.Sub(c.btnStart) >= ButtonHoldAfter {
		c.holdFired = true
		return Event{Kind: KindButtonHold, At: at}, true
	}
	return Event{}, false
}
