package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"soil_monitor/internal/models"

	"github.com/google/uuid"
)

type AlarmSQLite struct {
	db *sql.DB
}

func NewAlarmSQLite(db *sql.DB) *AlarmSQLite { return &AlarmSQLite{db: db} }

// Append inserts a new alarm. If AlarmID or OccurredAt are empty, they’re set.
func (r *AlarmSQLite) Append(ctx context.Context, a models.DeviceAlarm) error {
	if a.AlarmID == "" {
		a.AlarmID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}

	var metaPtr *string
	if a.Metadata != nil {
		if b, err := json.Marshal(a.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_alarms (id, dev_eui, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		a.AlarmID,
		a.DevEUI,
		a.OccurredAt.UTC().Format(TimestampLayout),
		strings.ToUpper(strings.TrimSpace(a.Type)),
		a.Description,
		metaPtr,
	)
	return err
}

// List returns alarms filtered by [from, to] (inclusive), type and device, ordered ASC.
func (r *AlarmSQLite) List(ctx context.Context, from, to time.Time, typ, devEUI string) ([]models.DeviceAlarm, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(TimestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(TimestampLayout))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if devEUI = strings.ToUpper(strings.TrimSpace(devEUI)); devEUI != "" {
		conds = append(conds, "dev_eui = ?")
		args = append(args, devEUI)
	}

	q := `SELECT id, dev_eui, occurred_at, type, message, meta FROM device_alarms`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.DeviceAlarm, 0, 16)
	for rows.Next() {
		var a models.DeviceAlarm
		var metaStr sql.NullString
		if err := rows.Scan(&a.AlarmID, &a.DevEUI, &a.OccurredAt, &a.Type, &a.Description, &metaStr); err != nil {
			return nil, err
		}
		a.OccurredAt = a.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				a.Metadata = v
			} else {
				a.Metadata = metaStr.String
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
