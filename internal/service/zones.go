package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/repository"
	"dialbed/internal/setpoint"
)

// ErrUnknownZone is returned for a zone identifier outside bed/pillow.
var ErrUnknownZone = errors.New("unknown zone")

// ZonesService backs the HTTP control surface and persists the settings
// fields the on-device UI edits; it satisfies the navigation machine's
// SettingsStore.
type ZonesService struct {
	model    *setpoint.Model
	settings repository.SettingsRepo
	events   repository.EventRepo
	log      *logger.Logger
}

func NewZonesService(model *setpoint.Model, settings repository.SettingsRepo, events repository.EventRepo, log *logger.Logger) *ZonesService {
	return &ZonesService{
		model:    model,
		settings: settings,
		events:   events,
		log:      log,
	}
}

func (s *ZonesService) Snapshot() []models.ZoneStatus {
	return s.model.Snapshot()
}

func (s *ZonesService) Zone(id models.ZoneID) (models.ZoneStatus, error) {
	if !id.Valid() {
		return models.ZoneStatus{}, ErrUnknownZone
	}
	return s.model.Snapshot()[id], nil
}

func (s *ZonesService) SetActive(_ context.Context, id models.ZoneID) error {
	if !id.Valid() {
		return ErrUnknownZone
	}
	s.model.SelectZone(id)
	return nil
}

// SetSetpoint applies a remote setpoint write. The value is clamped the
// same way a dial edit is; the applied value is returned.
func (s *ZonesService) SetSetpoint(ctx context.Context, id models.ZoneID, tempC float64) (float64, error) {
	if !id.Valid() {
		return 0, ErrUnknownZone
	}
	applied := s.model.SetTemperature(id, tempC)
	s.record(ctx, models.DeviceEvent{
		Type:        models.EventSetpoint,
		Description: id.String() + " setpoint set remotely",
		Metadata:    map[string]any{"zone": id.String(), "setpoint_c": applied},
	})
	return applied, nil
}

func (s *ZonesService) SetPower(ctx context.Context, id models.ZoneID, on bool) error {
	if !id.Valid() {
		return ErrUnknownZone
	}
	s.model.SetPower(id, on)
	s.record(ctx, models.DeviceEvent{
		Type:        models.EventPower,
		Description: id.String() + " power set remotely",
		Metadata:    map[string]any{"zone": id.String(), "on": on},
	})
	return nil
}

// SetEndpoint applies and persists a zone's remote address.
func (s *ZonesService) SetEndpoint(ctx context.Context, id models.ZoneID, ep models.Endpoint) error {
	if !id.Valid() {
		return ErrUnknownZone
	}
	s.model.SetEndpoint(id, ep)
	if err := s.SaveEndpoint(ctx, id, ep); err != nil {
		return err
	}
	s.record(ctx, models.DeviceEvent{
		Type:        models.EventEndpoint,
		Description: id.String() + " endpoint set remotely",
		Metadata:    map[string]any{"zone": id.String(), "endpoint": ep.String()},
	})
	return nil
}

// mutate runs a load-modify-save cycle on the settings row.
func (s *ZonesService) mutate(ctx context.Context, apply func(*models.DeviceSettings)) error {
	cur, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	apply(&cur)
	cur.UpdatedAt = time.Now().UTC()
	if err := s.settings.Save(ctx, cur); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SaveEndpoint persists one zone's endpoint without touching the model;
// the caller has already applied it.
func (s *ZonesService) SaveEndpoint(ctx context.Context, id models.ZoneID, ep models.Endpoint) error {
	if !id.Valid() {
		return ErrUnknownZone
	}
	return s.mutate(ctx, func(ds *models.DeviceSettings) {
		ds.Endpoints[id] = ep
	})
}

func (s *ZonesService) SaveCredentials(ctx context.Context, ssid, password string) error {
	return s.mutate(ctx, func(ds *models.DeviceSettings) {
		ds.WiFiSSID = ssid
		ds.WiFiPassword = password
	})
}

func (s *ZonesService) SaveBedSide(ctx context.Context, right bool) error {
	return s.mutate(ctx, func(ds *models.DeviceSettings) {
		ds.BedSideRight = right
	})
}

func (s *ZonesService) SaveUnit(ctx context.Context, fahrenheit bool) error {
	return s.mutate(ctx, func(ds *models.DeviceSettings) {
		ds.Fahrenheit = fahrenheit
	})
}

func (s *ZonesService) record(ctx context.Context, e models.DeviceEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Warnw("event append failed", "type", e.Type, "err", err)
	}
}
