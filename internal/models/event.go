package models

import "time"

// Device event types recorded in the append-only log.
const (
	EventPower       = "POWER"
	EventSetpoint    = "SETPOINT"
	EventEndpoint    = "ENDPOINT"
	EventWiFiJoin    = "WIFI_JOIN"
	EventRemoteDown  = "REMOTE_DOWN"
	EventRemoteUp    = "REMOTE_UP"
	EventPairAttempt = "PAIR"
)

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
