package vision

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facepoint/internal/config"
	"github.com/your-org/facepoint/internal/liveness"
	"github.com/your-org/facepoint/internal/observability"
)

// Extractor turns an image into at most one face descriptor. Detection is
// attempted with the fast model first and retried with the accurate model
// when nothing is found.
type Extractor struct {
	fast     *Detector
	accurate *Detector
	embedder *Embedder
}

// NewExtractor loads all ONNX models and returns a ready extractor.
func NewExtractor(cfg config.VisionConfig, opts *ort.SessionOptions) (*Extractor, error) {
	threshold := float32(cfg.DetectionThreshold)

	fastPath := filepath.Join(cfg.ModelsDir, ProfileFast.ModelFile())
	slog.Info("loading fast detection model", "path", fastPath)
	fast, err := NewDetector(fastPath, ProfileFast, threshold, opts)
	if err != nil {
		return nil, fmt.Errorf("load fast detector: %w", err)
	}

	accuratePath := filepath.Join(cfg.ModelsDir, ProfileAccurate.ModelFile())
	slog.Info("loading accurate detection model", "path", accuratePath)
	accurate, err := NewDetector(accuratePath, ProfileAccurate, threshold, opts)
	if err != nil {
		fast.Close()
		return nil, fmt.Errorf("load accurate detector: %w", err)
	}

	embedPath := filepath.Join(cfg.ModelsDir, "mobilefacenet.onnx")
	slog.Info("loading embedding model", "path", embedPath)
	embedder, err := NewEmbedder(embedPath)
	if err != nil {
		fast.Close()
		accurate.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	slog.Info("vision extractor ready")

	return &Extractor{fast: fast, accurate: accurate, embedder: embedder}, nil
}

// detect runs the fast detector and falls back to the accurate one when the
// fast pass finds no face.
func (e *Extractor) detect(img image.Image) ([]Detection, error) {
	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	start := time.Now()
	input := preprocessForDetection(img, e.fast.inputW, e.fast.inputH)
	observability.InferenceDuration.WithLabelValues("preprocess").Observe(time.Since(start).Seconds())

	start = time.Now()
	detections, err := e.fast.Detect(input, origW, origH)
	observability.InferenceDuration.WithLabelValues("detect_fast").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(detections) > 0 {
		return detections, nil
	}

	start = time.Now()
	detections, err = e.accurate.Detect(input, origW, origH)
	observability.InferenceDuration.WithLabelValues("detect_accurate").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return detections, nil
}

// Extract returns the descriptor of the most confident face in img.
// ok is false when no face is found in either profile; that is a normal
// outcome, not an error.
func (e *Extractor) Extract(img image.Image) (descriptor []float32, ok bool, err error) {
	detections, err := e.detect(img)
	if err != nil {
		return nil, false, fmt.Errorf("detect: %w", err)
	}
	if len(detections) == 0 {
		return nil, false, nil
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}

	crop := cropFace(img, best.BBox)
	if crop == nil {
		return nil, false, nil
	}

	start := time.Now()
	input := preprocessForEmbedding(crop, e.embedder.inputW, e.embedder.inputH)
	descriptor, err = e.embedder.Extract(input)
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, false, fmt.Errorf("embed: %w", err)
	}

	return descriptor, true, nil
}

// Locate implements liveness.Locator using the fast detector only; the
// liveness battery tolerates per-frame misses, so the accurate retry is
// not worth its latency here.
func (e *Extractor) Locate(img image.Image) ([]liveness.Box, error) {
	bounds := img.Bounds()
	input := preprocessForDetection(img, e.fast.inputW, e.fast.inputH)

	detections, err := e.fast.Detect(input, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	boxes := make([]liveness.Box, 0, len(detections))
	for _, d := range detections {
		boxes = append(boxes, liveness.Box{
			Top:    float64(d.BBox[1]),
			Right:  float64(d.BBox[2]),
			Bottom: float64(d.BBox[3]),
			Left:   float64(d.BBox[0]),
		})
	}
	return boxes, nil
}

// Close releases all ONNX sessions.
func (e *Extractor) Close() {
	if e.fast != nil {
		e.fast.Close()
	}
	if e.accurate != nil {
		e.accurate.Close()
	}
	if e.embedder != nil {
		e.embedder.Close()
	}
}
