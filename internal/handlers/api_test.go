package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/service"
)

func authedRequest(t *testing.T, s *service.Service, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := withHeader(httptest.NewRequest(method, target, nil), authHeader("valid"))
	r.ServeHTTP(w, req)
	return w
}

func TestAPI_RequiresToken(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Readings: &mockReadings{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAPI_ListReadings(t *testing.T) {
	readings := &mockReadings{rangeResp: []models.SensorReading{{DevEUI: "A"}, {DevEUI: "B"}}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Readings: readings}

	w := authedRequest(t, s, http.MethodGet, "/api/v1/readings?from=2024-01-01&to=2024-01-01")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count    int                    `json:"count"`
		Readings []models.SensorReading `json:"readings"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Readings) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if want := time.Date(2024, 1, 1, 23, 59, 59, 999999999, time.UTC); !readings.lastTo.Equal(want) {
		t.Fatalf("date-only 'to' should cover the day, got %v", readings.lastTo)
	}

	w = authedRequest(t, s, http.MethodGet, "/api/v1/readings?from=yesterday")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad 'from', got %d", w.Code)
	}
	w = authedRequest(t, s, http.MethodGet, "/api/v1/readings?from=2024-02-01&to=2024-01-01")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestAPI_DeleteReadings(t *testing.T) {
	readings := &mockReadings{deleted: 3}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Readings: readings}

	w := authedRequest(t, s, http.MethodDelete, "/api/v1/readings?point=2024-01-01T10:00:00")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out map[string]int64
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["deleted"] != 3 {
		t.Fatalf("unexpected response %v", out)
	}
	if !readings.lastPoint.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) || readings.lastTol != 2*time.Second {
		t.Fatalf("unexpected window %v ± %v", readings.lastPoint, readings.lastTol)
	}

	w = authedRequest(t, s, http.MethodDelete, "/api/v1/readings?point=2024-01-01T10:00:00&tolerance=30s")
	if w.Code != http.StatusOK || readings.lastTol != 30*time.Second {
		t.Fatalf("tolerance not applied: %d %v", w.Code, readings.lastTol)
	}

	for _, target := range []string{
		"/api/v1/readings",
		"/api/v1/readings?point=2024-01-01_10:00:00",
		"/api/v1/readings?point=2024-01-01T10:00:00&tolerance=-1s",
	} {
		w = authedRequest(t, s, http.MethodDelete, target)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}

	readings.err = errors.New("db")
	w = authedRequest(t, s, http.MethodDelete, "/api/v1/readings?point=2024-01-01T10:00:00")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestAPI_ListAlarms(t *testing.T) {
	alarms := &mockAlarmLog{resp: []models.DeviceAlarm{{AlarmID: "a1", Type: models.AlarmBatteryLow}}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, AlarmLog: alarms}

	w := authedRequest(t, s, http.MethodGet, "/api/v1/alarms?type=battery_low&dev=78AF580300000485&from=2024-01-01T00:00:00Z")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Alarms []models.DeviceAlarm `json:"alarms"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 || out.Alarms[0].AlarmID != "a1" {
		t.Fatalf("unexpected response: %+v", out)
	}
	f := alarms.lastFilter
	if f.Type != "battery_low" || f.DevEUI != "78AF580300000485" || !f.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected filter %+v", f)
	}

	alarms.err = errors.New("db")
	w = authedRequest(t, s, http.MethodGet, "/api/v1/alarms")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestAPI_DeviceStatus(t *testing.T) {
	mon := &mockMonitoring{status: models.DeviceStatus{DevEUI: "78AF580300000485", BatteryLow: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}

	w := authedRequest(t, s, http.MethodGet, "/api/v1/devices/78af580300000485/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var st models.DeviceStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if !st.BatteryLow || mon.lastDev != "78af580300000485" {
		t.Fatalf("unexpected status %+v (dev %q)", st, mon.lastDev)
	}

	mon.err = &protocol.UnrecognizedDeviceError{DevEUI: "00"}
	w = authedRequest(t, s, http.MethodGet, "/api/v1/devices/00/status")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	mon.err = errors.New("db")
	w = authedRequest(t, s, http.MethodGet, "/api/v1/devices/00/status")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestAPI_DeviceStatuses(t *testing.T) {
	mon := &mockMonitoring{statuses: []models.DeviceStatus{{DevEUI: "A"}, {DevEUI: "B"}}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}

	w := authedRequest(t, s, http.MethodGet, "/api/v1/devices")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var all []models.DeviceStatus
	_ = json.Unmarshal(w.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(all))
	}
}

func TestSystemRoutes(t *testing.T) {
	w := get(t, &service.Service{}, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	w = get(t, &service.Service{}, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
}
