package repository

import (
	"context"
	"database/sql"
	"time"

	"soil_monitor/internal/models"
)

// TimestampLayout is how timestamps are written to SQLite TIMESTAMP columns.
const TimestampLayout = "2006-01-02 15:04:05"

type ReadingRepo interface {
	Save(ctx context.Context, r models.SensorReading) error
	// Range returns readings with from <= timestamp <= to, oldest first. Zero
	// bounds are open.
	Range(ctx context.Context, from, to time.Time) ([]models.SensorReading, error)
	// DeleteWindow removes readings strictly inside (point-tol, point+tol).
	DeleteWindow(ctx context.Context, point time.Time, tol time.Duration) (int64, error)
	// Latest returns the newest reading of a device, or nil.
	Latest(ctx context.Context, devEUI string) (*models.SensorReading, error)
}

type AlarmRepo interface {
	Append(ctx context.Context, a models.DeviceAlarm) error
	List(ctx context.Context, from, to time.Time, typ, devEUI string) ([]models.DeviceAlarm, error)
}

type StatusRepo interface {
	Save(ctx context.Context, s models.DeviceStatus) error
	Load(ctx context.Context, devEUI string) (models.DeviceStatus, error)
}

type Operators interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

type Repository struct {
	Readings  ReadingRepo
	Alarms    AlarmRepo
	Status    StatusRepo
	Operators Operators
}

// NewRepository backs every store with db. A non-nil readings replaces the
// SQLite readings store (MongoDB deployments).
func NewRepository(db *sql.DB, readings ReadingRepo) *Repository {
	if readings == nil {
		readings = NewReadingSQLite(db)
	}
	return &Repository{
		Readings:  readings,
		Alarms:    NewAlarmSQLite(db),
		Status:    NewStatusSQLite(db),
		Operators: NewOperatorRepository(db),
	}
}
