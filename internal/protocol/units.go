package protocol

// Fixed-point scale used by the firmware for temperature and debit.
const hundredths = 100.0

// Uint16BE combines b[off] (high) and b[off+1] (low). Callers guarantee that
// b holds at least off+2 bytes.
func Uint16BE(b []byte, off int) uint16 {
	return uint16(b[off])<<8 | uint16(b[off+1])
}

// Hundredths decodes a big-endian fixed-point value expressed in 1/100 units.
func Hundredths(b []byte, off int) float64 {
	return float64(Uint16BE(b, off)) / hundredths
}

// Raw returns a single unscaled byte (0-255).
func Raw(b []byte, off int) uint8 {
	return b[off]
}
