package protocol

import (
	"errors"
	"testing"
	"time"
)

const knownEUI = "78AF580300000485"

func testRegistry() *Registry {
	return NewRegistry(DefaultDevices...)
}

func TestDecode_SensorFrame_FieldOffsets(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    SensorFrame
	}{
		{
			name:    "field example",
			payload: []byte{0x04, 0xB2, 0x1A, 0x32, 0x00, 0x14, 0x00, 0x32, 0x01, 0x2C},
			want: SensorFrame{
				DevEUI: knownEUI, Temperature: 12.02, Illuminance: 26, Humidity: 50,
				Counter: 20, Debit: 0.5, Voltage: 300,
			},
		},
		{
			name:    "all zero",
			payload: make([]byte, SensorFrameLen),
			want:    SensorFrame{DevEUI: knownEUI},
		},
		{
			name:    "all 0xFF",
			payload: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			want: SensorFrame{
				DevEUI: knownEUI, Temperature: 655.35, Illuminance: 255, Humidity: 255,
				Counter: 65535, Debit: 655.35, Voltage: 65535,
			},
		},
		{
			name:    "high bytes only",
			payload: []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00},
			want: SensorFrame{
				DevEUI: knownEUI, Temperature: 2.56, Counter: 512, Debit: 7.68, Voltage: 1024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(knownEUI, tt.payload, testRegistry())
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			got, ok := f.(SensorFrame)
			if !ok {
				t.Fatalf("want SensorFrame, got %T", f)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecode_SensorFrame_MatchesFormulas(t *testing.T) {
	reg := testRegistry()
	for seed := 0; seed < 256; seed += 17 {
		b := make([]byte, SensorFrameLen)
		for i := range b {
			b[i] = byte(seed*7 + i*31)
		}
		f, err := Decode(knownEUI, b, reg)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got := f.(SensorFrame)
		if want := float64(int(b[0])<<8|int(b[1])) / 100; got.Temperature != want {
			t.Errorf("temperature: got %v, want %v", got.Temperature, want)
		}
		if got.Illuminance != b[2] || got.Humidity != b[3] {
			t.Errorf("raw bytes: got %d/%d, want %d/%d", got.Illuminance, got.Humidity, b[2], b[3])
		}
		if want := uint16(b[4])<<8 | uint16(b[5]); got.Counter != want {
			t.Errorf("counter: got %d, want %d", got.Counter, want)
		}
		if want := float64(int(b[6])<<8|int(b[7])) / 100; got.Debit != want {
			t.Errorf("debit: got %v, want %v", got.Debit, want)
		}
		if want := uint16(b[8])<<8 | uint16(b[9]); got.Voltage != want {
			t.Errorf("voltage: got %d, want %d", got.Voltage, want)
		}
	}
}

func TestDecode_UnregisteredDevice(t *testing.T) {
	_, err := Decode("0000000000000001", make([]byte, SensorFrameLen), testRegistry())
	var target *UnrecognizedDeviceError
	if !errors.As(err, &target) {
		t.Fatalf("want UnrecognizedDeviceError, got %v", err)
	}
	if target.DevEUI != "0000000000000001" {
		t.Errorf("DevEUI = %q", target.DevEUI)
	}
}

func TestDecode_LowercaseEUIIsAccepted(t *testing.T) {
	f, err := Decode("78af580300000485", make([]byte, SensorFrameLen), testRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.(SensorFrame).DevEUI != knownEUI {
		t.Errorf("DevEUI not normalized: %q", f.(SensorFrame).DevEUI)
	}
}

func TestDecode_MalformedLengths(t *testing.T) {
	for _, n := range []int{0, 2, 5, 9, 11, 20} {
		_, err := Decode(knownEUI, make([]byte, n), testRegistry())
		var target *MalformedFrameError
		if !errors.As(err, &target) {
			t.Fatalf("len %d: want MalformedFrameError, got %v", n, err)
		}
		if target.Length != n {
			t.Errorf("len %d: Length = %d", n, target.Length)
		}
	}
}

func TestDecode_ControlFromAnyDevice(t *testing.T) {
	f, err := Decode("0000000000000001", []byte{'B'}, testRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sig, ok := f.(ControlSignal)
	if !ok || sig.Action != ActionBatteryLow {
		t.Fatalf("got %#v", f)
	}
}

func TestDecodeHexPayload(t *testing.T) {
	b, err := DecodeHexPayload("04B21A3200140032012C")
	if err != nil {
		t.Fatalf("DecodeHexPayload: %v", err)
	}
	if len(b) != SensorFrameLen || b[0] != 0x04 || b[9] != 0x2C {
		t.Fatalf("unexpected bytes % X", b)
	}

	_, err = DecodeHexPayload("zz")
	var target *MalformedFrameError
	if !errors.As(err, &target) {
		t.Fatalf("want MalformedFrameError, got %v", err)
	}
}

func TestSensorFrame_Reading(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f := SensorFrame{DevEUI: knownEUI, Temperature: 12.02, Illuminance: 26, Humidity: 50, Counter: 20, Debit: 0.5, Voltage: 300}
	r := f.Reading("2024-01-01T10:00:00.000000+02:00", ts)
	if r.DevEUI != knownEUI || !r.Timestamp.Equal(ts) || r.Time != "2024-01-01T10:00:00.000000+02:00" {
		t.Fatalf("identity fields: %+v", r)
	}
	if r.Temperature != 12.02 || r.Illuminance != 26 || r.Humidity != 50 || r.Counter != 20 || r.Debit != 0.5 || r.Voltage != 300 {
		t.Fatalf("measurements: %+v", r)
	}
}
