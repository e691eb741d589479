package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soil_monitor/internal/models"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

const (
	upsertStatusSQL = `
		INSERT INTO device_status (dev_eui, last_seen, last_frame, battery_low, unexpected_flow)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(dev_eui) DO UPDATE SET
			last_seen=excluded.last_seen,
			last_frame=excluded.last_frame,
			battery_low=excluded.battery_low,
			unexpected_flow=excluded.unexpected_flow
	`

	selectStatusSQL = `
		SELECT dev_eui, last_seen, last_frame, battery_low, unexpected_flow
		FROM device_status WHERE dev_eui=?
	`
)

// Save upserts the row of s.DevEUI. Latest is not persisted here.
func (r *StatusSQLite) Save(ctx context.Context, s models.DeviceStatus) error {
	seen := s.LastSeen
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, upsertStatusSQL,
		s.DevEUI,
		seen.UTC().Format(TimestampLayout),
		s.LastFrame,
		s.BatteryLow,
		s.UnexpectedFlow,
	)
	if err != nil {
		return fmt.Errorf("upsert status of %s: %w", s.DevEUI, err)
	}
	return nil
}

// Load fetches the status row of a device. A device never seen yields a zero
// status (empty DevEUI).
func (r *StatusSQLite) Load(ctx context.Context, devEUI string) (models.DeviceStatus, error) {
	var s models.DeviceStatus
	err := r.db.QueryRowContext(ctx, selectStatusSQL, devEUI).Scan(
		&s.DevEUI,
		&s.LastSeen,
		&s.LastFrame,
		&s.BatteryLow,
		&s.UnexpectedFlow,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceStatus{}, nil
		}
		return models.DeviceStatus{}, fmt.Errorf("select status of %s: %w", devEUI, err)
	}
	s.LastSeen = s.LastSeen.UTC()
	return s, nil
}
