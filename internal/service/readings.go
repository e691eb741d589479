package service

import (
	"context"
	"errors"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/repository"
)

// Default query window and deletion tolerance.
const (
	DefaultLookback        = 365 * 24 * time.Hour
	DefaultLookahead       = 2 * time.Hour
	DefaultDeleteTolerance = 2 * time.Second
)

var ErrInvalidTimeRange = errors.New("invalid time range: start must be <= end")

type ReadingService struct {
	repo repository.ReadingRepo
	now  func() time.Time
}

func NewReadingService(repo repository.ReadingRepo, now func() time.Time) *ReadingService {
	if now == nil {
		now = time.Now
	}
	return &ReadingService{repo: repo, now: now}
}

// Range returns readings between from and to. A zero from means one year
// back, a zero to means two hours ahead.
func (s *ReadingService) Range(ctx context.Context, from, to time.Time) ([]models.SensorReading, error) {
	now := s.now().UTC()
	if from.IsZero() {
		from = now.Add(-DefaultLookback)
	}
	if to.IsZero() {
		to = now.Add(DefaultLookahead)
	}
	if from.After(to) {
		return nil, ErrInvalidTimeRange
	}
	return s.repo.Range(ctx, from.UTC(), to.UTC())
}

// All returns every stored reading.
func (s *ReadingService) All(ctx context.Context) ([]models.SensorReading, error) {
	return s.repo.Range(ctx, time.Time{}, time.Time{})
}

func (s *ReadingService) Latest(ctx context.Context, devEUI string) (*models.SensorReading, error) {
	return s.repo.Latest(ctx, protocol.NormalizeEUI(devEUI))
}

// DeleteAround removes readings strictly within tol of point and returns how
// many were removed. A non-positive tol uses DefaultDeleteTolerance.
func (s *ReadingService) DeleteAround(ctx context.Context, point time.Time, tol time.Duration) (int64, error) {
	if tol <= 0 {
		tol = DefaultDeleteTolerance
	}
	return s.repo.DeleteWindow(ctx, point.UTC(), tol)
}
