package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecognitionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fp",
		Name:      "recognition_attempts_total",
		Help:      "Total recognition attempts by outcome",
	}, []string{"outcome"}) // matched, no_match, no_face, empty_gallery, liveness_failed

	LivenessChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fp",
		Name:      "liveness_checks_total",
		Help:      "Total liveness checks by verdict",
	}, []string{"verdict"}) // pass, fail

	AttendanceRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fp",
		Name:      "attendance_recorded_total",
		Help:      "Attendance slot writes by slot",
	}, []string{"slot"})

	GalleryReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fp",
		Name:      "gallery_reloads_total",
		Help:      "Full gallery reloads from the store",
	})

	GallerySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fp",
		Name:      "gallery_size",
		Help:      "Number of enrolled descriptors in the last loaded gallery",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fp",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fp",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fp",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
