package service

import (
	"context"

	"soil_monitor/internal/models"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/repository"
)

type MonitoringService struct {
	statusRepo repository.StatusRepo
	readings   repository.ReadingRepo
	registry   *protocol.Registry
}

func NewMonitoringService(statusRepo repository.StatusRepo, readings repository.ReadingRepo, registry *protocol.Registry) *MonitoringService {
	return &MonitoringService{statusRepo: statusRepo, readings: readings, registry: registry}
}

// Status returns the persisted status of a registered device with its latest
// reading attached. Devices never heard from get a baseline status.
func (s *MonitoringService) Status(ctx context.Context, devEUI string) (models.DeviceStatus, error) {
	devEUI = protocol.NormalizeEUI(devEUI)
	if !s.registry.Contains(devEUI) {
		return models.DeviceStatus{}, &protocol.UnrecognizedDeviceError{DevEUI: devEUI}
	}

	st, err := s.statusRepo.Load(ctx, devEUI)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	if st.DevEUI == "" {
		st = models.DeviceStatus{DevEUI: devEUI}
	}
	st.LastSeen = normalizeToUTC(st.LastSeen)

	latest, err := s.readings.Latest(ctx, devEUI)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	st.Latest = latest
	return st, nil
}

// Statuses returns Status for every registered device, in registry order.
func (s *MonitoringService) Statuses(ctx context.Context) ([]models.DeviceStatus, error) {
	devices := s.registry.Devices()
	out := make([]models.DeviceStatus, 0, len(devices))
	for _, eui := range devices {
		st, err := s.Status(ctx, eui)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
