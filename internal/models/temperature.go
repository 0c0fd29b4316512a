package models

import "math"

// Setpoint range and step, in Celsius. Celsius is the only canonical unit;
// Fahrenheit exists at the display and remote-protocol boundaries.
const (
	TempMin     = 10.0
	TempMax     = 35.0
	TempDefault = 21.0
	TempStep    = 0.5 // °C per encoder detent

	// Remote protocol accepts whole Fahrenheit degrees in this range.
	RemoteMinF = 55
	RemoteMaxF = 110
)

// ClampC bounds a Celsius setpoint to the device range.
func ClampC(c float64) float64 {
	if c < TempMin {
		return TempMin
	}
	if c > TempMax {
		return TempMax
	}
	return c
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 { return c*9.0/5.0 + 32.0 }

// FToC converts Fahrenheit to Celsius.
func FToC(f float64) float64 { return (f - 32.0) * 5.0 / 9.0 }

// RoundToWholeF snaps a Celsius value to the nearest whole Fahrenheit
// degree, returning Celsius. Used when the secondary unit is enabled so
// that the displayed value is always an integer.
func RoundToWholeF(c float64) float64 {
	return FToC(math.Round(CToF(c)))
}

// RemoteF converts a Celsius setpoint to the whole-degree Fahrenheit value
// accepted by the remote actuator, clamped to its range.
func RemoteF(c float64) int {
	f := int(math.Round(CToF(c)))
	if f < RemoteMinF {
		return RemoteMinF
	}
	if f > RemoteMaxF {
		return RemoteMaxF
	}
	return f
}
