package recognize

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Dim is the length of a face descriptor.
const Dim = 128

// Descriptor blob encodings. New enrollments are always written as
// EncodingFloat32; EncodingFloat64 exists for records enrolled before the
// store switched to 32-bit blobs.
const (
	EncodingFloat32 = "float32"
	EncodingFloat64 = "float64"
)

const (
	float32BlobLen = Dim * 4
	float64BlobLen = Dim * 8
)

// EncodeDescriptor serializes a descriptor as little-endian float32 bytes.
func EncodeDescriptor(d []float32) []byte {
	buf := make([]byte, 4*len(d))
	for i, v := range d {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeDescriptor deserializes a stored descriptor blob. When encoding is
// empty (records written before the encoding column existed) the width is
// sniffed from the byte length: 512 bytes is float32, 1024 is float64.
// Float64 blobs are downcast to float32. A blob that decodes to anything
// other than Dim elements is rejected.
func DecodeDescriptor(data []byte, encoding string) ([]float32, error) {
	if encoding == "" {
		switch len(data) {
		case float32BlobLen:
			encoding = EncodingFloat32
		case float64BlobLen:
			encoding = EncodingFloat64
		default:
			return nil, fmt.Errorf("descriptor blob has unrecognized length %d", len(data))
		}
	}

	switch encoding {
	case EncodingFloat32:
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("float32 descriptor blob has odd length %d", len(data))
		}
		n := len(data) / 4
		if n != Dim {
			return nil, fmt.Errorf("descriptor has %d elements, want %d", n, Dim)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil

	case EncodingFloat64:
		if len(data)%8 != 0 {
			return nil, fmt.Errorf("float64 descriptor blob has odd length %d", len(data))
		}
		n := len(data) / 8
		if n != Dim {
			return nil, fmt.Errorf("descriptor has %d elements, want %d", n, Dim)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:])))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown descriptor encoding %q", encoding)
	}
}

// Distance returns the Euclidean distance between two descriptors.
// It is symmetric and zero exactly when a and b are element-wise equal.
// Descriptors of unequal length are never comparable and report an
// infinite distance, so they can never fall within any tolerance.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
