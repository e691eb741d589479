package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"soil_monitor/internal/models"

	"github.com/google/uuid"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

var _ ReadingRepo = (*ReadingSQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO readings (id, dev_eui, ts, relay_time, temperature, illuminance, humidity, counter, debit, voltage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectReadingColumns = `SELECT id, dev_eui, ts, relay_time, temperature, illuminance, humidity, counter, debit, voltage FROM readings`
	deleteReadingsSQL    = `DELETE FROM readings WHERE ts > ? AND ts < ?`
)

// Save inserts r, generating an id when empty.
func (r *ReadingSQLite) Save(ctx context.Context, rd models.SensorReading) error {
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.ID,
		rd.DevEUI,
		rd.Timestamp.UTC().Format(TimestampLayout),
		rd.Time,
		rd.Temperature,
		rd.Illuminance,
		rd.Humidity,
		rd.Counter,
		rd.Debit,
		rd.Voltage,
	)
	if err != nil {
		return fmt.Errorf("insert reading for %s: %w", rd.DevEUI, err)
	}
	return nil
}

func (r *ReadingSQLite) Range(ctx context.Context, from, to time.Time) ([]models.SensorReading, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, from.UTC().Format(TimestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, to.UTC().Format(TimestampLayout))
	}

	q := selectReadingColumns
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ts ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorReading, 0, 64)
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

func (r *ReadingSQLite) DeleteWindow(ctx context.Context, point time.Time, tol time.Duration) (int64, error) {
	point = point.UTC()
	res, err := r.db.ExecContext(ctx, deleteReadingsSQL,
		point.Add(-tol).Format(TimestampLayout),
		point.Add(tol).Format(TimestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("delete readings around %s: %w", point.Format(TimestampLayout), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted readings: %w", err)
	}
	return n, nil
}

func (r *ReadingSQLite) Latest(ctx context.Context, devEUI string) (*models.SensorReading, error) {
	row := r.db.QueryRowContext(ctx, selectReadingColumns+` WHERE dev_eui = ? ORDER BY ts DESC LIMIT 1`, devEUI)
	rd, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rd, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(s rowScanner) (models.SensorReading, error) {
	var rd models.SensorReading
	err := s.Scan(
		&rd.ID,
		&rd.DevEUI,
		&rd.Timestamp,
		&rd.Time,
		&rd.Temperature,
		&rd.Illuminance,
		&rd.Humidity,
		&rd.Counter,
		&rd.Debit,
		&rd.Voltage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rd, err
		}
		return rd, fmt.Errorf("scan reading: %w", err)
	}
	rd.Timestamp = rd.Timestamp.UTC()
	return rd, nil
}
