package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// StripDataURL removes an optional "data:image/...;base64," prefix so the
// remainder can be fed straight to a base64 decoder. Payloads without the
// prefix are returned unchanged.
func StripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if idx := strings.Index(payload, ","); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}

// DecodeBase64Image decodes a base64 JPEG/PNG payload, with or without a
// data-URL prefix, into an image. Undecodable payloads are an error for
// the request, never a silent "no face".
func DecodeBase64Image(payload string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(payload))
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return img, nil
}

// DecodeBase64Frames decodes an ordered burst of base64 frames. Any
// undecodable frame fails the whole burst.
func DecodeBase64Frames(payloads []string) ([]image.Image, error) {
	frames := make([]image.Image, 0, len(payloads))
	for i, p := range payloads {
		img, err := DecodeBase64Image(p)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

// RawRGBA returns the frame's pixels as packed RGBA bytes, normalizing the
// source color model so byte-equality means pixel-for-pixel identity.
func RawRGBA(img image.Image) []byte {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

// Grayscale converts a frame to a [row][col] luminance matrix on a 0-255
// scale using the standard Rec. 601 weights.
func Grayscale(img image.Image) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(bl >> 8)
			row[x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
		out[y] = row
	}
	return out
}
