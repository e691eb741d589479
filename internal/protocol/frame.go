// Package protocol implements the soil station LoRaWAN payload format: uplink
// frame classification and decoding, the single-byte control codes, and the
// fixed-width hex commands sent back to the stations.
package protocol

import (
	"encoding/hex"
	"strings"
	"time"

	"soil_monitor/internal/models"
)

// Uplink payload sizes accepted from a station.
const (
	ControlFrameLen = 1
	SensorFrameLen  = 10
)

// Byte offsets inside a sensor frame.
const (
	offTemperature = 0
	offIlluminance = 2
	offHumidity    = 3
	offCounter     = 4
	offDebit       = 6
	offVoltage     = 8
)

// Frame is the result of classifying an uplink: either a ControlSignal or a
// SensorFrame.
type Frame interface {
	isFrame()
}

// ControlSignal is a single-byte uplink carrying one of the known actions.
type ControlSignal struct {
	DevEUI string
	Action ControlAction
}

// SensorFrame is a decoded 10-byte measurement frame.
type SensorFrame struct {
	DevEUI      string
	Temperature float64 // °C
	Illuminance uint8   // raw 0-255
	Humidity    uint8   // raw 0-255
	Counter     uint16  // flow meter pulses
	Debit       float64 // liters
	Voltage     uint16  // mV
}

func (ControlSignal) isFrame() {}
func (SensorFrame) isFrame()   {}

// Decode classifies payload and extracts its content.
//
// Single bytes are control codes and are accepted from any device. Sensor
// frames are only accepted from devices in reg. Every other length is a
// MalformedFrameError.
func Decode(devEUI string, payload []byte, reg *Registry) (Frame, error) {
	devEUI = NormalizeEUI(devEUI)
	switch len(payload) {
	case ControlFrameLen:
		action, err := ParseControl(payload[0])
		if err != nil {
			return nil, err
		}
		return ControlSignal{DevEUI: devEUI, Action: action}, nil
	case SensorFrameLen:
		if !reg.Contains(devEUI) {
			return nil, &UnrecognizedDeviceError{DevEUI: devEUI}
		}
		return decodeSensorFrame(devEUI, payload), nil
	default:
		return nil, &MalformedFrameError{Length: len(payload)}
	}
}

func decodeSensorFrame(devEUI string, b []byte) SensorFrame {
	return SensorFrame{
		DevEUI:      devEUI,
		Temperature: Hundredths(b, offTemperature),
		Illuminance: Raw(b, offIlluminance),
		Humidity:    Raw(b, offHumidity),
		Counter:     Uint16BE(b, offCounter),
		Debit:       Hundredths(b, offDebit),
		Voltage:     Uint16BE(b, offVoltage),
	}
}

// Reading ties the frame to the relay time it was received at. eventTime is
// the relay string as received, ts its parsed wall-clock value.
func (f SensorFrame) Reading(eventTime string, ts time.Time) models.SensorReading {
	return models.SensorReading{
		DevEUI:      f.DevEUI,
		Time:        eventTime,
		Timestamp:   ts,
		Temperature: f.Temperature,
		Illuminance: int(f.Illuminance),
		Humidity:    int(f.Humidity),
		Counter:     int(f.Counter),
		Debit:       f.Debit,
		Voltage:     int(f.Voltage),
	}
}

// DecodeHexPayload turns the relay's payload_hex into bytes.
func DecodeHexPayload(payloadHex string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(payloadHex))
	if err != nil {
		return nil, &MalformedFrameError{Length: -1, Err: err}
	}
	return b, nil
}
