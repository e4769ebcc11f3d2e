package liveness

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/your-org/facepoint/internal/imaging"
)

// Box is a face bounding region in pixel coordinates.
type Box struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (b Box) Width() float64  { return b.Right - b.Left }
func (b Box) Height() float64 { return b.Bottom - b.Top }
func (b Box) Area() float64   { return b.Width() * b.Height() }

// Locator finds face bounding regions in a single frame. Implemented by the
// vision detector; tests use a stub.
type Locator interface {
	Locate(img image.Image) ([]Box, error)
}

// Thresholds holds every tuning constant of the liveness battery in one
// place. The defaults are empirically chosen to be lenient toward real
// faces while still rejecting static photos and screen replays; they are
// not derived from a closed-form model.
type Thresholds struct {
	MinFrames             int     // minimum frames per check
	MinFrameDiff          float64 // floor for the smallest consecutive mean-abs-diff (0-255 scale)
	MinDiffVariance       float64 // floor for variance of consecutive diffs
	MinDiffMean           float64 // floor for mean of consecutive diffs
	MinBrightnessVariance float64 // floor for variance of per-frame mean brightness
	MinColorVarianceRange float64 // floor for range of per-frame pixel variance
	MinEdgeVariance       float64 // floor for variance of per-frame edge strength
	MinDetectedFaces      int     // frames that must contain a detectable face
	MinMovementStdDev     float64 // floor for the largest box-measure stddev
	MinStdDevSpread       float64 // floor for (max - min) across box-measure stddevs
	MinStepVariance       float64 // floor for variance of consecutive movement magnitude
	MinStepMean           float64 // floor for mean of consecutive movement magnitude
	MinAreaVariance       float64 // floor for variance of box area
	MinAreaRange          float64 // floor for range of box area
	MinAccelVariance      float64 // floor for variance of movement acceleration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFrames:             5,
		MinFrameDiff:          2.0,
		MinDiffVariance:       1.0,
		MinDiffMean:           1.0,
		MinBrightnessVariance: 1.0,
		MinColorVarianceRange: 2.0,
		MinEdgeVariance:       1.0,
		MinDetectedFaces:      3,
		MinMovementStdDev:     0.2,
		MinStdDevSpread:       0.05,
		MinStepVariance:       0.1,
		MinStepMean:           0.5,
		MinAreaVariance:       1.0,
		MinAreaRange:          0.5,
		MinAccelVariance:      0.1,
	}
}

// Result is the verdict of one liveness check. Reason is user-facing and
// names the failed signal so the UI can coach the subject.
type Result struct {
	Live       bool
	Confidence float64
	Reason     string
}

// Checker runs the multi-frame liveness battery. Stateless and safe for
// concurrent use.
type Checker struct {
	locator Locator
	th      Thresholds
}

func NewChecker(locator Locator, th Thresholds) *Checker {
	return &Checker{locator: locator, th: th}
}

func fail(reason string) Result {
	return Result{Live: false, Confidence: 0, Reason: reason}
}

// Check runs every gate, in order, over an ordered burst of frames.
// The battery is a conjunction: the first failing gate decides the verdict.
func (c *Checker) Check(frames []image.Image) Result {
	if len(frames) < c.th.MinFrames {
		return fail(fmt.Sprintf(
			"At least %d frames are required for liveness detection (got %d)",
			c.th.MinFrames, len(frames)))
	}

	raw := make([][]byte, len(frames))
	gray := make([][][]float64, len(frames))
	for i, f := range frames {
		raw[i] = imaging.RawRGBA(f)
		gray[i] = imaging.Grayscale(f)
	}

	// A replayed or static photo produces pixel-for-pixel identical captures.
	for i := 0; i < len(raw); i++ {
		for j := i + 1; j < len(raw); j++ {
			if bytes.Equal(raw[i], raw[j]) {
				return fail("Identical frames detected - please use a live camera feed")
			}
		}
	}

	diffs := make([]float64, 0, len(gray)-1)
	for i := 0; i < len(gray)-1; i++ {
		diffs = append(diffs, meanAbsDiff(gray[i], gray[i+1]))
	}
	if lo, _ := minMax(diffs); lo < c.th.MinFrameDiff {
		return fail("Frames are too similar - please move naturally")
	}
	if len(diffs) >= 2 {
		if variance(diffs) < c.th.MinDiffVariance || mean(diffs) < c.th.MinDiffMean {
			return fail("Uniform frame differences detected - possible screen replay")
		}
	}

	if len(gray) >= 3 {
		brightness := make([]float64, len(gray))
		colorVar := make([]float64, len(gray))
		edges := make([]float64, len(gray))
		for i, g := range gray {
			brightness[i] = frameMean(g)
			colorVar[i] = frameVariance(g)
			edges[i] = edgeStrength(g)
		}
		if variance(brightness) < c.th.MinBrightnessVariance {
			return fail("Uniform brightness across frames - static image suspected")
		}
		if lo, hi := minMax(colorVar); hi-lo < c.th.MinColorVarianceRange {
			return fail("Uniform color distribution across frames - static image suspected")
		}
		if variance(edges) < c.th.MinEdgeVariance {
			return fail("Uniform edge patterns detected - flat image suspected")
		}
	}

	// Occasional detection misses from motion blur are tolerated; a face
	// must still be visible in most frames.
	boxes := make([]Box, 0, len(frames))
	for _, f := range frames {
		found, err := c.locator.Locate(f)
		if err != nil {
			return fail("Face detection failed - please try again")
		}
		if len(found) > 0 {
			boxes = append(boxes, found[0])
		}
	}
	if len(boxes) < c.th.MinDetectedFaces {
		return fail(fmt.Sprintf(
			"Face detected in only %d of %d frames - please keep your face visible",
			len(boxes), len(frames)))
	}

	tops := make([]float64, len(boxes))
	rights := make([]float64, len(boxes))
	bottoms := make([]float64, len(boxes))
	lefts := make([]float64, len(boxes))
	widths := make([]float64, len(boxes))
	heights := make([]float64, len(boxes))
	areas := make([]float64, len(boxes))
	for i, b := range boxes {
		tops[i] = b.Top
		rights[i] = b.Right
		bottoms[i] = b.Bottom
		lefts[i] = b.Left
		widths[i] = b.Width()
		heights[i] = b.Height()
		areas[i] = b.Area()
	}

	stdDevs := []float64{
		stdDev(tops), stdDev(rights), stdDev(bottoms),
		stdDev(lefts), stdDev(widths), stdDev(heights),
	}
	minSD, maxSD := minMax(stdDevs)
	if maxSD < c.th.MinMovementStdDev {
		return fail("No natural movement detected - static photo suspected")
	}
	confidence := math.Min(1.0, maxSD/2.0)

	// Movement that is perfectly uniform in every direction is itself a
	// synthetic-motion signature.
	if maxSD-minSD < c.th.MinStdDevSpread {
		return fail("Perfectly uniform movement detected - possible synthetic motion")
	}

	steps := make([]float64, 0, len(boxes)-1)
	for i := 0; i < len(boxes)-1; i++ {
		steps = append(steps, movement(boxes[i], boxes[i+1]))
	}
	if variance(steps) < c.th.MinStepVariance || mean(steps) < c.th.MinStepMean {
		return fail("Insufficient natural movement - please move slightly")
	}

	if variance(areas) < c.th.MinAreaVariance {
		return fail("Face size never changes - flat image suspected")
	}
	if lo, hi := minMax(areas); hi-lo < c.th.MinAreaRange {
		return fail("Face size never changes - flat image suspected")
	}

	// Real head motion has non-uniform acceleration; absent or synthetic
	// motion does not.
	if len(boxes) >= 4 {
		accel := make([]float64, 0, len(steps)-1)
		for i := 0; i < len(steps)-1; i++ {
			accel = append(accel, steps[i+1]-steps[i])
		}
		if variance(accel) < c.th.MinAccelVariance {
			return fail("Unnatural movement pattern detected - please move naturally")
		}
	}

	return Result{
		Live:       true,
		Confidence: confidence,
		Reason:     "Liveness detected successfully",
	}
}

// movement is the summed absolute coordinate delta between two boxes.
func movement(a, b Box) float64 {
	return math.Abs(b.Top-a.Top) +
		math.Abs(b.Right-a.Right) +
		math.Abs(b.Bottom-a.Bottom) +
		math.Abs(b.Left-a.Left)
}

// meanAbsDiff is the mean absolute pixel difference between two grayscale
// frames, computed over their overlapping region.
func meanAbsDiff(a, b [][]float64) float64 {
	h := len(a)
	if len(b) < h {
		h = len(b)
	}
	if h == 0 {
		return 0
	}
	w := len(a[0])
	if len(b[0]) < w {
		w = len(b[0])
	}
	if w == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += math.Abs(a[y][x] - b[y][x])
		}
	}
	return sum / float64(h*w)
}

func frameMean(g [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range g {
		for _, v := range row {
			sum += v
		}
		n += len(row)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func frameVariance(g [][]float64) float64 {
	m := frameMean(g)
	var sum float64
	var n int
	for _, row := range g {
		for _, v := range row {
			d := v - m
			sum += d * d
		}
		n += len(row)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// edgeStrength is the mean gradient magnitude of a frame, a cheap stand-in
// for texture sharpness: |dx| + |dy| with forward differences.
func edgeStrength(g [][]float64) float64 {
	h := len(g)
	if h < 2 {
		return 0
	}
	w := len(g[0])
	if w < 2 {
		return 0
	}
	var sum float64
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			dx := math.Abs(g[y][x+1] - g[y][x])
			dy := math.Abs(g[y+1][x] - g[y][x])
			sum += dx + dy
		}
	}
	return sum / float64((h-1)*(w-1))
}
