package models

import "time"

// DeviceStatus is the last known condition of a station.
type DeviceStatus struct {
	DevEUI         string         `json:"devEUI"`
	LastSeen       time.Time      `json:"last_seen,omitempty"`
	LastFrame      string         `json:"last_frame,omitempty"` // SENSOR | TIME_SYNC | SCHEDULE_REQUEST | alarm type
	BatteryLow     bool           `json:"battery_low"`
	UnexpectedFlow bool           `json:"unexpected_flow"`
	Latest         *SensorReading `json:"latest,omitempty"`
}
