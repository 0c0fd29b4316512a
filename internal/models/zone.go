package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ZoneID selects one of the two independently controlled zones.
type ZoneID int

const (
	ZoneBed ZoneID = iota
	ZonePillow

	// ZoneCount is the fixed number of zones on the device.
	ZoneCount = 2
)

func (z ZoneID) String() string {
	switch z {
	case ZoneBed:
		return "bed"
	case ZonePillow:
		return "pillow"
	default:
		return "unknown"
	}
}

// Valid reports whether z indexes a real zone.
func (z ZoneID) Valid() bool { return z >= 0 && z < ZoneCount }

// ParseZoneID maps a zone name back to its ID.
func ParseZoneID(s string) (ZoneID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bed":
		return ZoneBed, nil
	case "pillow":
		return ZonePillow, nil
	}
	return 0, fmt.Errorf("unknown zone %q", s)
}

// Endpoint is the IPv4 address of a zone's remote actuator, kept as four
// octets because the on-device IP editor edits them one at a time.
type Endpoint [4]uint8

func (e Endpoint) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", e[0], e[1], e[2], e[3])
}

// IsZero reports whether the endpoint has never been configured.
func (e Endpoint) IsZero() bool { return e == Endpoint{} }

// ParseEndpoint parses a dotted-quad address.
func ParseEndpoint(s string) (Endpoint, error) {
	var e Endpoint
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return e, fmt.Errorf("invalid endpoint %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return e, fmt.Errorf("invalid endpoint %q", s)
		}
		e[i] = uint8(v)
	}
	return e, nil
}

// Zone is the local view of one temperature zone.
type Zone struct {
	Setpoint float64  // °C, always within [TempMin, TempMax]
	PowerOn  bool
	Endpoint Endpoint
}

// ZoneStatus is the snapshot shape exposed on the control surface, the
// WebSocket stream and the MQTT telemetry topics.
type ZoneStatus struct {
	ID          ZoneID    `json:"-"`
	Zone        string    `json:"zone"`
	SetpointC   float64   `json:"setpoint_c"`
	PowerOn     bool      `json:"power_on"`
	Endpoint    string    `json:"endpoint,omitempty"`
	Active      bool      `json:"active"`
	PendingPush bool      `json:"pending_push"`
	UpdatedAt   time.Time `json:"updated_at"`
}
