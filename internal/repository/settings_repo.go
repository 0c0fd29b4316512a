package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dialbed/internal/models"
)

type SettingsSQLite struct {
	conn *sql.DB
}

func NewSettingsSQLite(conn *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{conn: conn}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO device_settings
			(id, bed_endpoint, pillow_endpoint, bed_side_right, fahrenheit,
			 wifi_ssid, wifi_password, pairing_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bed_endpoint=excluded.bed_endpoint,
			pillow_endpoint=excluded.pillow_endpoint,
			bed_side_right=excluded.bed_side_right,
			fahrenheit=excluded.fahrenheit,
			wifi_ssid=excluded.wifi_ssid,
			wifi_password=excluded.wifi_password,
			pairing_hash=excluded.pairing_hash,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT bed_endpoint, pillow_endpoint, bed_side_right, fahrenheit,
		       wifi_ssid, wifi_password, pairing_hash, updated_at
		FROM device_settings WHERE id=?
	`
)

// endpointColumn renders an endpoint for storage; unconfigured endpoints
// are stored as the empty string, not "0.0.0.0".
func endpointColumn(e models.Endpoint) string {
	if e.IsZero() {
		return ""
	}
	return e.String()
}

func endpointFromColumn(s string) (models.Endpoint, error) {
	if s == "" {
		return models.Endpoint{}, nil
	}
	return models.ParseEndpoint(s)
}

// Save updates or inserts the device_settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s models.DeviceSettings) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.conn.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		endpointColumn(s.Endpoints[models.ZoneBed]),
		endpointColumn(s.Endpoints[models.ZonePillow]),
		s.BedSideRight,
		s.Fahrenheit,
		s.WiFiSSID,
		s.WiFiPassword,
		s.PairingHash,
		ts,
	)
	return err
}

// Load fetches the settings row. A missing row yields zero-value settings,
// not an error; the device runs fine unconfigured.
func (r *SettingsSQLite) Load(ctx context.Context) (models.DeviceSettings, error) {
	row := r.conn.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s        models.DeviceSettings
		bedEP    string
		pillowEP string
	)
	if err := row.Scan(
		&bedEP,
		&pillowEP,
		&s.BedSideRight,
		&s.Fahrenheit,
		&s.WiFiSSID,
		&s.WiFiPassword,
		&s.PairingHash,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceSettings{}, nil
		}
		return models.DeviceSettings{}, err
	}

	var err error
	if s.Endpoints[models.ZoneBed], err = endpointFromColumn(bedEP); err != nil {
		return models.DeviceSettings{}, err
	}
	if s.Endpoints[models.ZonePillow], err = endpointFromColumn(pillowEP); err != nil {
		return models.DeviceSettings{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
