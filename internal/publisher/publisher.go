// Package publisher forwards decoded readings and alarms to downstream
// telemetry systems.
package publisher

import (
	"context"
	"errors"

	"soil_monitor/internal/models"
)

// Publisher receives every stored reading and every raised alarm.
type Publisher interface {
	PublishReading(ctx context.Context, r models.SensorReading) error
	PublishAlarm(ctx context.Context, a models.DeviceAlarm) error
}

// Multi fans out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishReading(ctx context.Context, r models.SensorReading) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishReading(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishAlarm(ctx context.Context, a models.DeviceAlarm) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishAlarm(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher that holds a connection.
func (m Multi) Close() {
	for _, p := range m {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
