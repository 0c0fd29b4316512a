package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"dialbed/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	conn *sql.DB
}

func NewEventSQLite(conn *sql.DB) *EventSQLite { return &EventSQLite{conn: conn} }

// sqliteTimeFormat is the TIMESTAMP layout SQLite compares lexically.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Append inserts a new event. Missing EventID or OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO device_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.EventID,
		e.OccurredAt.Format(sqliteTimeFormat),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive) and/or type,
// ordered ascending.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeFormat))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeFormat))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, message, meta FROM device_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.DeviceEvent
	for rows.Next() {
		var (
			e       models.DeviceEvent
			rawTime string
			metaPtr *string
		)
		if err := rows.Scan(&e.EventID, &rawTime, &e.Type, &e.Description, &metaPtr); err != nil {
			return nil, err
		}
		if ts, perr := time.ParseInLocation(sqliteTimeFormat, rawTime, time.UTC); perr == nil {
			e.OccurredAt = ts
		}
		if metaPtr != nil && *metaPtr != "" {
			var meta any
			if jerr := json.Unmarshal([]byte(*metaPtr), &meta); jerr == nil {
				e.Metadata = meta
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
