package repository

import (
	"context"
	"database/sql"
	"time"

	"dialbed/internal/models"
)

// SettingsRepo persists the single device configuration row.
type SettingsRepo interface {
	Save(ctx context.Context, s models.DeviceSettings) error
	Load(ctx context.Context) (models.DeviceSettings, error)
}

// EventRepo is the append-only device event log.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	Settings SettingsRepo
	Events   EventRepo
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Settings: NewSettingsSQLite(conn),
		Events:   NewEventSQLite(conn),
	}
}
