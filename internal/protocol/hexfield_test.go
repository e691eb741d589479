package protocol

import "testing"

func TestPackHex(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		width int
		want  string
	}{
		{"pads short values", 5, 2, "0005"},
		{"exact width", 0xABCD, 2, "ABCD"},
		{"single byte", 1, 1, "01"},
		{"timestamp", 1000, 4, "000003E8"},
		{"max 4 byte", 0xFFFFFFFF, 4, "FFFFFFFF"},
		{"saturates above 2^32", 1<<32 + 1, 4, "FFFFFFFF"},
		{"saturates far above", 1 << 40, 4, "FFFFFFFF"},
		{"2^16 keeps low digits", 1 << 16, 2, "0000"},
		{"saturates above 2^16", 1<<16 + 7, 2, "FFFF"},
		{"negative is zero", -3, 2, "0000"},
		{"zero width", 10, 0, ""},
		{"eight bytes", 1, 8, "0000000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PackHex(tt.value, tt.width); got != tt.want {
				t.Errorf("PackHex(%d, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
			}
		})
	}
}

func TestUnpackHex(t *testing.T) {
	v, err := UnpackHex("03E8")
	if err != nil || v != 1000 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := UnpackHex("XYZ"); err == nil {
		t.Fatalf("expected error")
	}
}
