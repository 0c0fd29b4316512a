package models

import "time"

// DeviceSettings is the persisted configuration: everything the device must
// remember across restarts. Setpoints are deliberately absent; the remote
// actuator is the durable source for those and the first successful poll
// after startup overwrites whatever the zones were seeded with.
type DeviceSettings struct {
	Endpoints    [ZoneCount]Endpoint `json:"endpoints"`
	BedSideRight bool                `json:"bed_side_right"`
	Fahrenheit   bool                `json:"fahrenheit"`
	WiFiSSID     string              `json:"wifi_ssid"`
	WiFiPassword string              `json:"-"`
	PairingHash  string              `json:"-"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Side returns the remote protocol side label derived from the bed-side
// flag. Both zones use the same label; it is a user preference, not a
// property of the zone.
func (s DeviceSettings) Side() string {
	if s.BedSideRight {
		return "right"
	}
	return "left"
}
