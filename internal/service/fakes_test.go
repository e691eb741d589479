package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/repository"
)

type fakeReadings struct {
	mu      sync.Mutex
	saved   []models.SensorReading
	saveErr error

	rangeFrom, rangeTo time.Time
	deletedPoint       time.Time
	deletedTol         time.Duration
	latestDev          string
}

func (f *fakeReadings) Save(_ context.Context, r models.SensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeReadings) Range(_ context.Context, from, to time.Time) ([]models.SensorReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeFrom, f.rangeTo = from, to
	return append([]models.SensorReading(nil), f.saved...), nil
}

func (f *fakeReadings) DeleteWindow(_ context.Context, point time.Time, tol time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedPoint, f.deletedTol = point, tol
	return 1, nil
}

func (f *fakeReadings) Latest(_ context.Context, devEUI string) (*models.SensorReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestDev = devEUI
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].DevEUI == devEUI {
			r := f.saved[i]
			return &r, nil
		}
	}
	return nil, nil
}

type fakeAlarms struct {
	appended  []models.DeviceAlarm
	appendErr error

	listFrom, listTo time.Time
	listType, listEUI string
}

func (f *fakeAlarms) Append(_ context.Context, a models.DeviceAlarm) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, a)
	return nil
}

func (f *fakeAlarms) List(_ context.Context, from, to time.Time, typ, devEUI string) ([]models.DeviceAlarm, error) {
	f.listFrom, f.listTo, f.listType, f.listEUI = from, to, typ, devEUI
	return f.appended, nil
}

type fakeStatus struct {
	rows    map[string]models.DeviceStatus
	saveErr error
}

func newFakeStatus() *fakeStatus { return &fakeStatus{rows: map[string]models.DeviceStatus{}} }

func (f *fakeStatus) Save(_ context.Context, s models.DeviceStatus) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[s.DevEUI] = s
	return nil
}

func (f *fakeStatus) Load(_ context.Context, devEUI string) (models.DeviceStatus, error) {
	return f.rows[devEUI], nil
}

type sentCommand struct {
	devEUI, payload string
}

type fakeDispatcher struct {
	sent []sentCommand
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, devEUI, payloadHex string) (string, error) {
	f.sent = append(f.sent, sentCommand{devEUI: devEUI, payload: payloadHex})
	if f.err != nil {
		return "", f.err
	}
	return "<ok/>", nil
}

type fakePublisher struct {
	readings []models.SensorReading
	alarms   []models.DeviceAlarm
}

func (f *fakePublisher) PublishReading(_ context.Context, r models.SensorReading) error {
	f.readings = append(f.readings, r)
	return errors.New("broker offline")
}

func (f *fakePublisher) PublishAlarm(_ context.Context, a models.DeviceAlarm) error {
	f.alarms = append(f.alarms, a)
	return nil
}

type fixture struct {
	readings  *fakeReadings
	alarms    *fakeAlarms
	status    *fakeStatus
	dispatch  *fakeDispatcher
	publisher *fakePublisher
}

func newFixture() *fixture {
	return &fixture{
		readings:  &fakeReadings{},
		alarms:    &fakeAlarms{},
		status:    newFakeStatus(),
		dispatch:  &fakeDispatcher{},
		publisher: &fakePublisher{},
	}
}

func (f *fixture) repos() *repository.Repository {
	return &repository.Repository{Readings: f.readings, Alarms: f.alarms, Status: f.status}
}
