package protocol

import "fmt"

// MalformedFrameError is returned when an uplink payload is neither a
// single control byte nor a full sensor frame.
type MalformedFrameError struct {
	Length int
	Err    error // set when the payload could not be hex-decoded
}

func (e *MalformedFrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %v", e.Err)
	}
	return fmt.Sprintf("malformed frame: %d bytes, want %d or %d", e.Length, ControlFrameLen, SensorFrameLen)
}

func (e *MalformedFrameError) Unwrap() error { return e.Err }

// UnrecognizedDeviceError is returned for sensor frames from a device that is
// not in the registry.
type UnrecognizedDeviceError struct {
	DevEUI string
}

func (e *UnrecognizedDeviceError) Error() string {
	return fmt.Sprintf("device %q not recognised", e.DevEUI)
}

// UnknownControlByteError is returned for single-byte uplinks that carry none
// of the known control codes.
type UnknownControlByteError struct {
	Byte byte
}

func (e *UnknownControlByteError) Error() string {
	return fmt.Sprintf("unknown control byte 0x%02X", e.Byte)
}

// TimeParseError is returned when the relay timestamp does not match
// YYYY-MM-DDTHH:MM:SS[.ffffff](+|-)HH:MM.
type TimeParseError struct {
	Value string
	Err   error
}

func (e *TimeParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse relay time %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("parse relay time %q", e.Value)
}

func (e *TimeParseError) Unwrap() error { return e.Err }
