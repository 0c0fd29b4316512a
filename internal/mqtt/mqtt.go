// Package mqtt publishes retained zone-state telemetry, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"dialbed/internal/models"
)

// TopicAvailability carries the retained online/offline flag; the broker
// flips it to offline through the last-will message.
const TopicAvailability = "dialbed/status"

// Availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// ZoneTopic returns the retained state topic for one zone.
func ZoneTopic(zone string) string {
	return "dialbed/zone/" + zone + "/state"
}

// Publisher publishes zone state to MQTT.
type Publisher interface {
	// PublishZone sends one zone's retained state message.
	// Returns error if publishing fails (must not crash the process).
	PublishZone(st models.ZoneStatus) error

	// Close disconnects from the broker.
	Close() error
}

// ZonePayload is the retained state message for one zone.
type ZonePayload struct {
	Zone        string  `json:"zone"`
	SetpointC   float64 `json:"setpoint_c"`
	TargetF     int     `json:"target_f"`
	PowerOn     bool    `json:"power_on"`
	Active      bool    `json:"active"`
	PendingPush bool    `json:"pending_push"`
	Timestamp   string  `json:"timestamp"`
}

// FormatZonePayload creates the JSON payload for a zone state message.
func FormatZonePayload(st models.ZoneStatus) ([]byte, error) {
	ts := st.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := ZonePayload{
		Zone:        st.Zone,
		SetpointC:   st.SetpointC,
		TargetF:     models.RemoteF(st.SetpointC),
		PowerOn:     st.PowerOn,
		Active:      st.Active,
		PendingPush: st.PendingPush,
		Timestamp:   ts.UTC().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
