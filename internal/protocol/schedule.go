package protocol

import (
	"fmt"
	"time"
)

// Field widths of the next-steps command, in bytes.
const (
	tagWidth      = 1
	timeWidth     = 4
	durationWidth = 2
	actionWidth   = 1

	eventHexLen = 2 * (timeWidth + durationWidth + actionWidth)

	// ScheduleHexLen is the length of an encoded next-steps command.
	ScheduleHexLen = 2*tagWidth + 2*eventHexLen
)

// WateringEvent is one planned slot of the station's valve.
type WateringEvent struct {
	At       time.Time `json:"at"`
	Duration int       `json:"watering_time"` // in firmware units
	Water    bool      `json:"action"`        // false: observe only
}

// EncodeSchedule builds the next-steps command for the two upcoming events.
//
// Layout: tag(1) | ts1(4) dur1(2) act1(1) | ts2(4) dur2(2) act2(1).
func EncodeSchedule(next, nextNext WateringEvent) string {
	return PackHex(int64(TagNextSteps), tagWidth) + encodeEvent(next) + encodeEvent(nextNext)
}

func encodeEvent(e WateringEvent) string {
	act := int64(0)
	if e.Water {
		act = 1
	}
	return PackHex(e.At.Unix(), timeWidth) +
		PackHex(int64(e.Duration), durationWidth) +
		PackHex(act, actionWidth)
}

// DecodeSchedule parses a command built by EncodeSchedule. Event times are
// returned in UTC.
func DecodeSchedule(cmd string) (WateringEvent, WateringEvent, error) {
	if len(cmd) != ScheduleHexLen {
		return WateringEvent{}, WateringEvent{}, fmt.Errorf("next-steps command: %d hex digits, want %d", len(cmd), ScheduleHexLen)
	}
	tag, err := UnpackHex(cmd[:2*tagWidth])
	if err != nil {
		return WateringEvent{}, WateringEvent{}, fmt.Errorf("next-steps tag: %w", err)
	}
	if byte(tag) != TagNextSteps {
		return WateringEvent{}, WateringEvent{}, fmt.Errorf("next-steps tag: got 0x%02X", tag)
	}
	first, err := decodeEvent(cmd[2*tagWidth : 2*tagWidth+eventHexLen])
	if err != nil {
		return WateringEvent{}, WateringEvent{}, fmt.Errorf("first event: %w", err)
	}
	second, err := decodeEvent(cmd[2*tagWidth+eventHexLen:])
	if err != nil {
		return WateringEvent{}, WateringEvent{}, fmt.Errorf("second event: %w", err)
	}
	return first, second, nil
}

func decodeEvent(s string) (WateringEvent, error) {
	ts, err := UnpackHex(s[0:8])
	if err != nil {
		return WateringEvent{}, err
	}
	dur, err := UnpackHex(s[8:12])
	if err != nil {
		return WateringEvent{}, err
	}
	act, err := UnpackHex(s[12:14])
	if err != nil {
		return WateringEvent{}, err
	}
	return WateringEvent{
		At:       time.Unix(int64(ts), 0).UTC(),
		Duration: int(dur),
		Water:    act == 1,
	}, nil
}

// SchedulePolicy chooses the next two watering events for a station.
type SchedulePolicy interface {
	Next(now time.Time) (WateringEvent, WateringEvent)
}

// DailyPolicy plans an observe-only slot at a fixed time of day followed, Gap
// later, by a watering slot. It holds no state, so concurrent requests never
// see each other's schedule.
type DailyPolicy struct {
	Hour, Minute   int
	Gap            time.Duration
	FirstDuration  int
	SecondDuration int
	Location       *time.Location // nil means time.Local
}

// DefaultDailyPolicy observes at 10:00 for 10 and waters at 10:05 for 20.
func DefaultDailyPolicy() DailyPolicy {
	return DailyPolicy{
		Hour:           10,
		Minute:         0,
		Gap:            5 * time.Minute,
		FirstDuration:  10,
		SecondDuration: 20,
	}
}

// Next returns today's two slots in the policy's location.
func (p DailyPolicy) Next(now time.Time) (WateringEvent, WateringEvent) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	today := now.In(loc)
	first := time.Date(today.Year(), today.Month(), today.Day(), p.Hour, p.Minute, 0, 0, loc)
	return WateringEvent{At: first, Duration: p.FirstDuration, Water: false},
		WateringEvent{At: first.Add(p.Gap), Duration: p.SecondDuration, Water: true}
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
