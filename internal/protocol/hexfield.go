package protocol

import (
	"strconv"
	"strings"
)

// PackHex renders value as a big-endian field of width bytes, two uppercase
// hex digits per byte.
//
// Values above 2^(8*width) saturate to all 0xFF. Shorter renderings are left
// padded with zeros; longer ones keep the least significant 2*width digits.
// Negative values render as zero.
func PackHex(value int64, width int) string {
	if width <= 0 {
		return ""
	}
	digits := 2 * width
	if value < 0 {
		return strings.Repeat("0", digits)
	}
	if width < 8 && uint64(value) > uint64(1)<<(8*uint(width)) {
		return strings.Repeat("FF", width)
	}
	s := strings.ToUpper(strconv.FormatUint(uint64(value), 16))
	switch {
	case len(s) < digits:
		return strings.Repeat("0", digits-len(s)) + s
	case len(s) > digits:
		return s[len(s)-digits:]
	default:
		return s
	}
}

// UnpackHex parses a fixed-width field produced by PackHex.
func UnpackHex(field string) (uint64, error) {
	return strconv.ParseUint(field, 16, 64)
}
