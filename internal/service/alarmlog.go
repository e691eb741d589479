package service

import (
	"context"
	"strings"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/repository"
)

// AlarmFilter selects alarms by time range, type and device.
type AlarmFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "UNEXPECTED_FLOW", "BATTERY_LOW"
	DevEUI string
}

type AlarmLogService struct {
	alarmRepo repository.AlarmRepo
}

func NewAlarmLogService(alarmRepo repository.AlarmRepo) *AlarmLogService {
	return &AlarmLogService{alarmRepo: alarmRepo}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeFilter(f AlarmFilter) (AlarmFilter, error) {
	f.From = normalizeToUTC(f.From)
	f.To = normalizeToUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return AlarmFilter{}, ErrInvalidTimeRange
	}
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	f.DevEUI = strings.ToUpper(strings.TrimSpace(f.DevEUI))
	return f, nil
}

func (s *AlarmLogService) List(ctx context.Context, f AlarmFilter) ([]models.DeviceAlarm, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.alarmRepo.List(ctx, f.From, f.To, f.Type, f.DevEUI)
}
