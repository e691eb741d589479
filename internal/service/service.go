package service

import (
	"context"
	"time"

	"soil_monitor/internal/logger"
	"soil_monitor/internal/models"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/publisher"
	"soil_monitor/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Uplink handles one relay notification end to end.
type Uplink interface {
	Handle(ctx context.Context, req UplinkRequest) (Outcome, error)
}

// Readings exposes stored sensor readings.
type Readings interface {
	Range(ctx context.Context, from, to time.Time) ([]models.SensorReading, error)
	All(ctx context.Context) ([]models.SensorReading, error)
	Latest(ctx context.Context, devEUI string) (*models.SensorReading, error)
	DeleteAround(ctx context.Context, point time.Time, tol time.Duration) (int64, error)
}

// AlarmLog exposes the append-only alarm history.
type AlarmLog interface {
	List(ctx context.Context, f AlarmFilter) ([]models.DeviceAlarm, error)
}

// Monitoring exposes the last known condition of registered stations.
type Monitoring interface {
	Status(ctx context.Context, devEUI string) (models.DeviceStatus, error)
	Statuses(ctx context.Context) ([]models.DeviceStatus, error)
}

// Dispatcher delivers a hex command to a station.
type Dispatcher interface {
	Send(ctx context.Context, devEUI, payloadHex string) (string, error)
}

type Service struct {
	Uplink
	Readings
	AlarmLog
	Monitoring
	Authorization
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Registry  *protocol.Registry
	Downlink  Dispatcher
	Policy    protocol.SchedulePolicy
	Publisher publisher.Publisher
	Auth      AuthConfig
	Log       *logger.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Registry == nil {
		d.Registry = protocol.NewRegistry(protocol.DefaultDevices...)
	}
	if d.Policy == nil {
		d.Policy = protocol.DefaultDailyPolicy()
	}
	if d.Publisher == nil {
		d.Publisher = publisher.Multi{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// NewService wires repositories and collaborators into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults()
	return &Service{
		Uplink:        NewUplinkService(repos, deps),
		Readings:      NewReadingService(repos.Readings, deps.Now),
		AlarmLog:      NewAlarmLogService(repos.Alarms),
		Monitoring:    NewMonitoringService(repos.Status, repos.Readings, deps.Registry),
		Authorization: NewAuthService(repos.Operators, deps.Auth),
	}
}
