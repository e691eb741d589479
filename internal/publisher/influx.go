package publisher

import (
	"context"
	"errors"
	"fmt"

	"soil_monitor/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	readingMeasurement = "soil_reading"
	alarmMeasurement   = "device_alarm"
)

// InfluxConfig locates the bucket readings are mirrored to.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxPublisher mirrors readings and alarms into an InfluxDB bucket.
type InfluxPublisher struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

func NewInflux(cfg InfluxConfig) (*InfluxPublisher, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxPublisher{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (p *InfluxPublisher) PublishReading(ctx context.Context, r models.SensorReading) error {
	if err := p.writer.WritePoint(ctx, readingPoint(r)); err != nil {
		return fmt.Errorf("write reading of %s: %w", r.DevEUI, err)
	}
	return nil
}

func (p *InfluxPublisher) PublishAlarm(ctx context.Context, a models.DeviceAlarm) error {
	if err := p.writer.WritePoint(ctx, alarmPoint(a)); err != nil {
		return fmt.Errorf("write alarm of %s: %w", a.DevEUI, err)
	}
	return nil
}

func (p *InfluxPublisher) Close() {
	p.client.Close()
}

func readingPoint(r models.SensorReading) *write.Point {
	return influxdb2.NewPoint(readingMeasurement,
		map[string]string{"dev_eui": r.DevEUI},
		map[string]interface{}{
			"temperature": r.Temperature,
			"illuminance": r.Illuminance,
			"humidity":    r.Humidity,
			"counter":     r.Counter,
			"debit":       r.Debit,
			"voltage":     r.Voltage,
		},
		r.Timestamp,
	)
}

func alarmPoint(a models.DeviceAlarm) *write.Point {
	return influxdb2.NewPoint(alarmMeasurement,
		map[string]string{"dev_eui": a.DevEUI, "type": a.Type},
		map[string]interface{}{"count": 1},
		a.OccurredAt,
	)
}
