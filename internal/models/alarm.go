package models

import "time"

// Alarm types raised by stations.
const (
	AlarmUnexpectedFlow = "UNEXPECTED_FLOW"
	AlarmBatteryLow     = "BATTERY_LOW"
)

// DeviceAlarm is a single alarm entry.
type DeviceAlarm struct {
	AlarmID     string    `json:"alarm_id"`
	DevEUI      string    `json:"devEUI"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
