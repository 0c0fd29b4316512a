package service

import (
	"context"
	"time"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/repository"
	"dialbed/internal/setpoint"
)

// Zones exposes the control surface over both zones. Writes go through the
// same clamping and push-arming paths as on-device edits.
type Zones interface {
	Snapshot() []models.ZoneStatus
	Zone(id models.ZoneID) (models.ZoneStatus, error)
	SetActive(ctx context.Context, id models.ZoneID) error
	SetSetpoint(ctx context.Context, id models.ZoneID, tempC float64) (float64, error)
	SetPower(ctx context.Context, id models.ZoneID, on bool) error
	SetEndpoint(ctx context.Context, id models.ZoneID, ep models.Endpoint) error
}

// EventLog exposes the append-only device log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Pairing issues and validates access tokens against the device PIN.
type Pairing interface {
	Pair(ctx context.Context, pin string) (string, error)
	ParseToken(accessToken string) error
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "" or one of the models event type constants
}

// Service aggregates all sub-services. The Zones field is the concrete
// ZonesService in production wiring so the navigation machine can share it
// as its settings store.
type Service struct {
	Zones
	EventLog
	Pairing
}

func NewService(repos *repository.Repository, model *setpoint.Model, pairing PairingConfig, log *logger.Logger) (*Service, *ZonesService, error) {
	p, err := NewPairingService(pairing, repos.Events, log)
	if err != nil {
		return nil, nil, err
	}
	zones := NewZonesService(model, repos.Settings, repos.Events, log)
	return &Service{
		Zones:    zones,
		EventLog: NewEventLogService(repos.Events),
		Pairing:  p,
	}, zones, nil
}
