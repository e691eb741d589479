package models

import "time"

// SensorReading is one decoded measurement frame of a soil station.
type SensorReading struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	DevEUI      string    `json:"devEUI" bson:"devEUI"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`     // relay wall-clock time
	Time        string    `json:"time" bson:"time"`               // relay time as received
	Temperature float64   `json:"temperature" bson:"temperature"` // °C
	Illuminance int       `json:"illuminance" bson:"illuminance"` // raw 0-255
	Humidity    int       `json:"humidity" bson:"humidity"`       // raw 0-255
	Counter     int       `json:"counter" bson:"counter"`         // pulses
	Debit       float64   `json:"debit" bson:"debit"`             // liters
	Voltage     int       `json:"voltage" bson:"voltage"`         // mV
}
