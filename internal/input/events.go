// Package input turns raw rotary ticks, touch samples and encoder button
// state into the discrete events the rest of the device consumes.
package input

import (
	"fmt"
	"time"

	"dialbed/internal/models"
)

// Kind enumerates the classified input events.
type Kind int

const (
	// KindStepAdjust is one rotary detent, Steps = ±1.
	KindStepAdjust Kind = iota
	// KindToggleDim is a short center tap.
	KindToggleDim
	// KindTogglePower is a medium center press.
	KindTogglePower
	// KindToggleNightOverride is a long center press.
	KindToggleNightOverride
	// KindOpenSettings is a very long center press or a bottom-strip touch.
	KindOpenSettings
	// KindArcSet carries the position along the temperature arc, 0..1.
	KindArcSet
	// KindSelectZone selects the zone named in Zone.
	KindSelectZone
	// KindButtonPress is an encoder button press released before the hold
	// threshold.
	KindButtonPress
	// KindButtonHold fires once while the encoder button is held past the
	// hold threshold (level-triggered).
	KindButtonHold
)

func (k Kind) String() string {
	switch k {
	case KindStepAdjust:
		return "step_adjust"
	case KindToggleDim:
		return "toggle_dim"
	case KindTogglePower:
		return "toggle_power"
	case KindToggleNightOverride:
		return "toggle_night_override"
	case KindOpenSettings:
		return "open_settings"
	case KindArcSet:
		return "arc_set"
	case KindSelectZone:
		return "select_zone"
	case KindButtonPress:
		return "button_press"
	case KindButtonHold:
		return "button_hold"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one classified input event.
type Event struct {
	Kind  Kind
	Steps int           // KindStepAdjust: ±1
	Ratio float64       // KindArcSet: 0..1 along the arc
	Zone  models.ZoneID // KindSelectZone
	At    time.Time
}
