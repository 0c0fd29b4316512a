package device

import (
	"errors"
	"testing"
	"time"

	"dialbed/internal/logger"
)

type fakeBacklight struct {
	levels []uint8
	err    error
}

func (f *fakeBacklight) SetBrightness(l uint8) error {
	if f.err != nil {
		return f.err
	}
	f.levels = append(f.levels, l)
	return nil
}

func (f *fakeBacklight) last(t *testing.T) uint8 {
	t.Helper()
	if len(f.levels) == 0 {
		t.Fatalf("no brightness applied")
	}
	return f.levels[len(f.levels)-1]
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBrightnessFixture(hour int) (*Brightness, *fakeBacklight, *fakeClock) {
	back := &fakeBacklight{}
	clk := &fakeClock{t: time.Date(2026, 1, 15, hour, 0, 0, 0, time.UTC)}
	b := NewBrightness(back, logger.Get(logger.ErrorLevel))
	b.now = clk.now
	b.lastActivity = clk.t
	return b, back, clk
}

func TestBrightness_NightWindow(t *testing.T) {
	tests := []struct {
		hour int
		want uint8
	}{
		{12, BrightnessDay},
		{21, BrightnessDay},
		{22, BrightnessNight},
		{23, BrightnessNight},
		{2, BrightnessNight},
		{6, BrightnessNight},
		{7, BrightnessDay},
	}
	for _, tt := range tests {
		b, back, _ := newBrightnessFixture(tt.hour)
		b.Apply()
		if got := back.last(t); got != tt.want {
			t.Errorf("hour %d: level = %d, want %d", tt.hour, got, tt.want)
		}
	}
}

func TestBrightness_IdleDimsAndActivityWakes(t *testing.T) {
	b, back, clk := newBrightnessFixture(12)

	b.Apply()
	if back.last(t) != BrightnessDay {
		t.Fatalf("initial level = %d", back.last(t))
	}

	clk.advance(DimTimeout)
	b.Apply()
	if back.last(t) != BrightnessDim {
		t.Fatalf("idle level = %d, want dim", back.last(t))
	}

	b.Activity()
	b.Apply()
	if back.last(t) != BrightnessDay {
		t.Fatalf("woken level = %d, want day", back.last(t))
	}
}

func TestBrightness_NightOverride(t *testing.T) {
	b, back, _ := newBrightnessFixture(12)

	b.ToggleNightOverride()
	b.Apply()
	if back.last(t) != BrightnessNight {
		t.Fatalf("override level = %d, want night", back.last(t))
	}

	b.ToggleNightOverride()
	b.Apply()
	if back.last(t) != BrightnessDay {
		t.Fatalf("cleared level = %d, want day", back.last(t))
	}
}

func TestBrightness_ForcedDimWinsOverNight(t *testing.T) {
	b, back, _ := newBrightnessFixture(23)

	b.ToggleDim()
	b.Apply()
	if back.last(t) != BrightnessDim {
		t.Fatalf("forced level = %d, want dim", back.last(t))
	}

	b.ToggleDim()
	b.Apply()
	if back.last(t) != BrightnessNight {
		t.Fatalf("released level = %d, want night", back.last(t))
	}
}

func TestBrightness_AppliesOnlyOnChange(t *testing.T) {
	b, back, _ := newBrightnessFixture(12)

	b.Apply()
	b.Apply()
	b.Apply()
	if len(back.levels) != 1 {
		t.Fatalf("applied %d times, want 1", len(back.levels))
	}
}

func TestBrightness_FailedWriteRetried(t *testing.T) {
	b, back, _ := newBrightnessFixture(12)

	back.err = errors.New("i2c write failed")
	b.Apply()
	if len(back.levels) != 0 {
		t.Fatalf("recorded a failed write")
	}

	back.err = nil
	b.Apply()
	if back.last(t) != BrightnessDay {
		t.Fatalf("retry level = %d", back.last(t))
	}
}
