package protocol

import "time"

// ControlAction is a single-byte request or alarm raised by a station.
type ControlAction byte

const (
	ActionTimeSync        ControlAction = 't'
	ActionUnexpectedFlow  ControlAction = 'U'
	ActionBatteryLow      ControlAction = 'B'
	ActionScheduleRequest ControlAction = 'n'
)

// Downlink command tags, sent as the first byte of every command.
const (
	TagTime      byte = 't'
	TagNextSteps byte = 'n'
)

// ParseControl maps a control byte to its action.
func ParseControl(b byte) (ControlAction, error) {
	switch a := ControlAction(b); a {
	case ActionTimeSync, ActionUnexpectedFlow, ActionBatteryLow, ActionScheduleRequest:
		return a, nil
	default:
		return 0, &UnknownControlByteError{Byte: b}
	}
}

func (a ControlAction) String() string {
	switch a {
	case ActionTimeSync:
		return "TIME_SYNC"
	case ActionUnexpectedFlow:
		return "UNEXPECTED_FLOW"
	case ActionBatteryLow:
		return "BATTERY_LOW"
	case ActionScheduleRequest:
		return "SCHEDULE_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsAlarm reports whether the action only needs to be recorded, with no
// downlink reply.
func (a ControlAction) IsAlarm() bool {
	return a == ActionUnexpectedFlow || a == ActionBatteryLow
}

// EncodeTimeSync builds the clock command: tag 't' followed by now as a 4-byte
// Unix timestamp.
func EncodeTimeSync(now time.Time) string {
	return PackHex(int64(TagTime), 1) + PackHex(now.Unix(), 4)
}
