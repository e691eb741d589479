package handlers

import (
	"context"
	"net/http"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockUplink struct {
	out     service.Outcome
	err     error
	lastReq service.UplinkRequest
	calls   int
}

func (m *mockUplink) Handle(_ context.Context, req service.UplinkRequest) (service.Outcome, error) {
	m.calls++
	m.lastReq = req
	return m.out, m.err
}

type mockReadings struct {
	rangeResp []models.SensorReading
	rangeErr  error
	allResp   []models.SensorReading
	latest    *models.SensorReading
	deleted   int64
	err       error

	lastFrom, lastTo time.Time
	lastDev          string
	lastPoint        time.Time
	lastTol          time.Duration
	rangeCalls       int
}

func (m *mockReadings) Range(_ context.Context, from, to time.Time) ([]models.SensorReading, error) {
	m.rangeCalls++
	m.lastFrom, m.lastTo = from, to
	return m.rangeResp, m.rangeErr
}
func (m *mockReadings) All(context.Context) ([]models.SensorReading, error) {
	return m.allResp, m.err
}
func (m *mockReadings) Latest(_ context.Context, devEUI string) (*models.SensorReading, error) {
	m.lastDev = devEUI
	return m.latest, m.err
}
func (m *mockReadings) DeleteAround(_ context.Context, point time.Time, tol time.Duration) (int64, error) {
	m.lastPoint, m.lastTol = point, tol
	return m.deleted, m.err
}

type mockAlarmLog struct {
	resp       []models.DeviceAlarm
	err        error
	lastFilter service.AlarmFilter
}

func (m *mockAlarmLog) List(_ context.Context, f service.AlarmFilter) ([]models.DeviceAlarm, error) {
	m.lastFilter = f
	return m.resp, m.err
}

type mockMonitoring struct {
	status   models.DeviceStatus
	statuses []models.DeviceStatus
	err      error
	lastDev  string
}

func (m *mockMonitoring) Status(_ context.Context, devEUI string) (models.DeviceStatus, error) {
	m.lastDev = devEUI
	return m.status, m.err
}
func (m *mockMonitoring) Statuses(context.Context) ([]models.DeviceStatus, error) {
	return m.statuses, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeader(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
