package recognize

import (
	"encoding/binary"
	"math"
	"testing"
)

func makeDescriptor(seed float32) []float32 {
	d := make([]float32, Dim)
	for i := range d {
		d[i] = seed + float32(i)*0.001
	}
	return d
}

func encodeFloat64(d []float64) []byte {
	buf := make([]byte, len(d)*8)
	for i, v := range d {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := makeDescriptor(0.5)
	blob := EncodeDescriptor(original)

	if len(blob) != Dim*4 {
		t.Fatalf("encoded blob length = %d; want %d", len(blob), Dim*4)
	}

	decoded, err := DecodeDescriptor(blob, EncodingFloat32)
	if err != nil {
		t.Fatalf("DecodeDescriptor: %v", err)
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Fatalf("decoded[%d] = %v; want %v", i, decoded[i], original[i])
		}
	}
}

func TestDecodeFloat64Downcast(t *testing.T) {
	wide := make([]float64, Dim)
	for i := range wide {
		wide[i] = float64(i) * 0.01
	}
	blob := encodeFloat64(wide)

	decoded, err := DecodeDescriptor(blob, EncodingFloat64)
	if err != nil {
		t.Fatalf("DecodeDescriptor: %v", err)
	}
	for i := range wide {
		if decoded[i] != float32(wide[i]) {
			t.Fatalf("decoded[%d] = %v; want %v", i, decoded[i], float32(wide[i]))
		}
	}
}

func TestDecodeSniffsUntaggedBlobs(t *testing.T) {
	f32 := EncodeDescriptor(makeDescriptor(1.0))
	wide := make([]float64, Dim)
	for i := range wide {
		wide[i] = 0.25
	}
	f64 := encodeFloat64(wide)

	tests := []struct {
		name string
		blob []byte
	}{
		{"512 bytes as float32", f32},
		{"1024 bytes as float64", f64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeDescriptor(tc.blob, "")
			if err != nil {
				t.Fatalf("DecodeDescriptor: %v", err)
			}
			if len(decoded) != Dim {
				t.Fatalf("decoded length = %d; want %d", len(decoded), Dim)
			}
		})
	}
}

func TestDecodeRejectsBadLengths(t *testing.T) {
	tests := []struct {
		name     string
		blob     []byte
		encoding string
	}{
		{"empty blob", nil, ""},
		{"short blob", make([]byte, 100), ""},
		{"wrong float32 length", make([]byte, 400), EncodingFloat32},
		{"wrong float64 length", make([]byte, 800), EncodingFloat64},
		{"unsniffable length", make([]byte, 777), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeDescriptor(tc.blob, tc.encoding); err == nil {
				t.Errorf("DecodeDescriptor accepted %d bytes (%q)", len(tc.blob), tc.encoding)
			}
		})
	}
}

func TestDistanceSymmetricAndZero(t *testing.T) {
	a := makeDescriptor(0.1)
	b := makeDescriptor(0.9)

	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %v; want 0", d)
	}
	ab := Distance(a, b)
	ba := Distance(b, a)
	if ab != ba {
		t.Errorf("Distance not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 {
		t.Errorf("Distance(a, b) = %v; want > 0", ab)
	}
}

func TestDistanceUnequalLengths(t *testing.T) {
	full := makeDescriptor(0.5)
	short := full[:Dim/2]

	if d := Distance(short, full); !math.IsInf(d, 1) {
		t.Errorf("Distance(short, full) = %v; want +Inf", d)
	}
	if d := Distance(full, short); !math.IsInf(d, 1) {
		t.Errorf("Distance(full, short) = %v; want +Inf", d)
	}
	if d := Distance(nil, full); !math.IsInf(d, 1) {
		t.Errorf("Distance(nil, full) = %v; want +Inf", d)
	}
}
