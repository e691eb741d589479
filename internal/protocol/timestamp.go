package protocol

import (
	"errors"
	"strings"
	"time"
)

// RelayTimeLayout is the date-time part of relay timestamps, without fraction
// and offset.
const RelayTimeLayout = "2006-01-02T15:04:05"

var (
	errMissingOffset = errors.New("missing timezone offset")
	errBadOffset     = errors.New("timezone offset must be ±HH:MM or Z")
	errBadFraction   = errors.New("fractional seconds must be digits")
)

// ParseRelayTime parses YYYY-MM-DDTHH:MM:SS[.ffffff](+|-)HH:MM.
//
// Fractional seconds and the offset are dropped: the result is the relay's
// wall-clock time, labelled UTC.
func ParseRelayTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	dateTime, err := stripOffset(s)
	if err != nil {
		return time.Time{}, &TimeParseError{Value: s, Err: err}
	}
	if i := strings.IndexByte(dateTime, '.'); i >= 0 {
		frac := dateTime[i+1:]
		if frac == "" || strings.Trim(frac, "0123456789") != "" {
			return time.Time{}, &TimeParseError{Value: s, Err: errBadFraction}
		}
		dateTime = dateTime[:i]
	}
	t, err := time.Parse(RelayTimeLayout, dateTime)
	if err != nil {
		return time.Time{}, &TimeParseError{Value: s, Err: err}
	}
	return t, nil
}

func stripOffset(s string) (string, error) {
	if strings.HasSuffix(s, "Z") {
		return strings.TrimSuffix(s, "Z"), nil
	}
	tIdx := strings.IndexByte(s, 'T')
	if tIdx < 0 {
		return "", errMissingOffset
	}
	i := strings.LastIndexAny(s, "+-")
	if i <= tIdx {
		return "", errMissingOffset
	}
	if !validOffset(s[i+1:]) {
		return "", errBadOffset
	}
	return s[:i], nil
}

func validOffset(off string) bool {
	if len(off) != 5 || off[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if off[i] < '0' || off[i] > '9' {
			return false
		}
	}
	return true
}
