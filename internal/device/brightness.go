// Package device runs the on-device side of the controller: the input
// loop that turns raw hardware samples into navigation actions, and the
// backlight brightness policy.
package device

import (
	"time"

	"dialbed/internal/logger"
)

// Backlight levels and policy constants.
const (
	BrightnessDay   uint8 = 255
	BrightnessNight uint8 = 51
	BrightnessDim   uint8 = 2

	// DimTimeout is the idle time after which the backlight drops to the
	// dim level.
	DimTimeout = 10 * time.Second

	// Night window, local time. The window wraps midnight.
	NightStartHour = 22
	NightEndHour   = 7
)

// Backlight drives the physical display brightness.
type Backlight interface {
	SetBrightness(level uint8) error
}

// Brightness decides the backlight level from the time of day, idle time
// and the user's dim / night-override toggles. The device loop owns it; it
// is not safe for concurrent use. It satisfies the navigation machine's
// Display interface.
type Brightness struct {
	backlight Backlight
	log       *logger.Logger
	now       func() time.Time

	lastActivity  time.Time
	forcedDim     bool
	nightOverride bool

	applied    uint8
	appliedSet bool
}

func NewBrightness(backlight Backlight, log *logger.Logger) *Brightness {
	b := &Brightness{
		backlight: backlight,
		log:       log,
		now:       time.Now,
	}
	b.lastActivity = b.now()
	return b
}

// Activity marks user input, restarting the idle countdown.
func (b *Brightness) Activity() {
	b.lastActivity = b.now()
}

// ToggleDim flips the forced-dim state. Any toggle also counts as
// activity.
func (b *Brightness) ToggleDim() {
	b.forcedDim = !b.forcedDim
	b.lastActivity = b.now()
}

// ToggleNightOverride flips treating the current time as night regardless
// of the clock.
func (b *Brightness) ToggleNightOverride() {
	b.nightOverride = !b.nightOverride
	b.lastActivity = b.now()
}

// NightOverride reports whether the override is active.
func (b *Brightness) NightOverride() bool { return b.nightOverride }

func isNight(t time.Time) bool {
	h := t.Hour()
	return h >= NightStartHour || h < NightEndHour
}

func (b *Brightness) level() uint8 {
	t := b.now()
	if b.forcedDim || t.Sub(b.lastActivity) >= DimTimeout {
		return BrightnessDim
	}
	if b.nightOverride || isNight(t) {
		return BrightnessNight
	}
	return BrightnessDay
}

// Apply pushes the computed level to the backlight when it differs from
// the last applied one. A failed write is retried on the next call.
func (b *Brightness) Apply() {
	lvl := b.level()
	if b.appliedSet && lvl == b.applied {
		return
	}
	if err := b.backlight.SetBrightness(lvl); err != nil {
		b.log.Warnw("set brightness failed", "level", lvl, "err", err)
		return
	}
	b.applied = lvl
	b.appliedSet = true
}
