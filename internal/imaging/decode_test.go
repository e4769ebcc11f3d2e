package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"no prefix", "aGVsbG8=", "aGVsbG8="},
		{"jpeg prefix", "data:image/jpeg;base64,aGVsbG8=", "aGVsbG8="},
		{"png prefix", "data:image/png;base64,aGVsbG8=", "aGVsbG8="},
		{"data prefix without comma", "data:aGVsbG8=", "data:aGVsbG8="},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripDataURL(tc.payload); got != tc.want {
				t.Errorf("StripDataURL(%q) = %q; want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestDecodeBase64Image(t *testing.T) {
	payload := encodeTestPNG(t, 8, 6, color.RGBA{200, 100, 50, 255})

	for _, prefix := range []string{"", "data:image/png;base64,"} {
		img, err := DecodeBase64Image(prefix + payload)
		if err != nil {
			t.Fatalf("DecodeBase64Image (prefix %q): %v", prefix, err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
			t.Errorf("bounds = %v; want 8x6", img.Bounds())
		}
	}
}

func TestDecodeBase64ImageErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"base64 but not an image", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBase64Image(tc.payload); err == nil {
				t.Error("DecodeBase64Image accepted a malformed payload")
			}
		})
	}
}

func TestDecodeBase64FramesFailsWhole(t *testing.T) {
	good := encodeTestPNG(t, 4, 4, color.White)

	frames, err := DecodeBase64Frames([]string{good, good})
	if err != nil {
		t.Fatalf("DecodeBase64Frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("decoded %d frames; want 2", len(frames))
	}

	if _, err := DecodeBase64Frames([]string{good, "garbage", good}); err == nil {
		t.Error("burst with one bad frame should fail")
	}
}

func TestRawRGBAEquality(t *testing.T) {
	a := encodeTestPNG(t, 4, 4, color.RGBA{10, 20, 30, 255})
	b := encodeTestPNG(t, 4, 4, color.RGBA{10, 20, 31, 255})

	imgA1, _ := DecodeBase64Image(a)
	imgA2, _ := DecodeBase64Image(a)
	imgB, _ := DecodeBase64Image(b)

	if !bytes.Equal(RawRGBA(imgA1), RawRGBA(imgA2)) {
		t.Error("identical images produced different raw bytes")
	}
	if bytes.Equal(RawRGBA(imgA1), RawRGBA(imgB)) {
		t.Error("different images produced equal raw bytes")
	}
}

func TestGrayscaleNeutralPixels(t *testing.T) {
	// For R=G=B the Rec. 601 weights sum to 1, so luminance equals the
	// channel value.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	g := Grayscale(img)
	if len(g) != 2 || len(g[0]) != 2 {
		t.Fatalf("grayscale dimensions = %dx%d; want 2x2", len(g), len(g[0]))
	}
	for y := range g {
		for x := range g[y] {
			if diff := g[y][x] - 128; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("g[%d][%d] = %v; want 128", y, x, g[y][x])
			}
		}
	}
}
