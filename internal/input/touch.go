package input

import "math"

// Screen geometry for the round 240×240 display. Hit regions are fixed; the
// renderer draws to match them, not the other way around.
const (
	ScreenWidth  = 240
	ScreenHeight = 240

	centerX    = ScreenWidth / 2
	centerY    = ScreenHeight / 2
	centerHalf = 50 // center square is 100×100

	arcInner    = 75 // ring band radii
	arcOuter    = 110
	arcSweepDeg = 135.0 // arc spans ±135° around straight-down

	bottomStripY = 200
)

type touchRegion int

const (
	regionCenter touchRegion = iota
	regionArc
	regionBottomStrip
	regionLeft
	regionRight
)

// region resolves a touch point to exactly one hit region. Order matters:
// the center square wins over the ring, the ring over the bottom strip, and
// whatever is left splits into the two zone-select halves.
func region(x, y int) touchRegion {
	dx := x - centerX
	dy := y - centerY

	if dx >= -centerHalf && dx <= centerHalf && dy >= -centerHalf && dy <= centerHalf {
		return regionCenter
	}

	d := math.Hypot(float64(dx), float64(dy))
	if d >= arcInner && d <= arcOuter {
		if _, ok := arcRatio(x, y); ok {
			return regionArc
		}
	}

	if y >= bottomStripY {
		return regionBottomStrip
	}
	if x < centerX {
		return regionLeft
	}
	return regionRight
}

// arcRatio maps a touch point to its position along the arc, 0 at the cold
// end and 1 at the hot end. The reference is rotated 90° so the arc opens
// downward, matching the drawn ring.
func arcRatio(x, y int) (float64, bool) {
	dx := float64(x - centerX)
	dy := float64(y - centerY)

	deg := math.Atan2(dy, dx) * 180.0 / math.Pi
	deg += 90
	if deg < -arcSweepDeg {
		deg += 360
	}
	if deg > 360-arcSweepDeg {
		deg -= 360
	}
	if deg < -arcSweepDeg || deg > arcSweepDeg {
		return 0, false
	}
	return (deg + arcSweepDeg) / (2 * arcSweepDeg), true
}
