package handlers

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/attendance"
	"github.com/your-org/facepoint/internal/imaging"
	"github.com/your-org/facepoint/internal/liveness"
	"github.com/your-org/facepoint/internal/models"
	"github.com/your-org/facepoint/internal/observability"
	"github.com/your-org/facepoint/internal/queue"
	"github.com/your-org/facepoint/internal/recognize"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/internal/vision"
	"github.com/your-org/facepoint/pkg/dto"
)

type RecognitionHandler struct {
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	producer  *queue.Producer
	extractor *vision.Extractor
	gallery   *recognize.Cache
	matcher   *recognize.Matcher
	checker   *liveness.Checker
	recorder  *attendance.Recorder
}

func NewRecognitionHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer,
	extractor *vision.Extractor, gallery *recognize.Cache, matcher *recognize.Matcher,
	checker *liveness.Checker, recorder *attendance.Recorder) *RecognitionHandler {
	return &RecognitionHandler{
		db:        db,
		minio:     minio,
		producer:  producer,
		extractor: extractor,
		gallery:   gallery,
		matcher:   matcher,
		checker:   checker,
		recorder:  recorder,
	}
}

// Recognize runs the full clock-in pipeline: liveness gate over the frame
// burst, descriptor extraction from the primary image, gallery match,
// attendance slot recording, snapshot upload, event publish.
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	var req dto.RecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	frames, err := imaging.DecodeBase64Frames(req.Frames)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "decode frames: " + err.Error()})
		return
	}

	ev := models.AttendanceEvent{
		EventID:   uuid.New(),
		Timestamp: time.Now(),
	}

	lv := h.checker.Check(frames)
	ev.Live = lv.Live
	ev.LivenessReason = lv.Reason
	if !lv.Live {
		observability.LivenessChecks.WithLabelValues("fail").Inc()
		observability.RecognitionAttempts.WithLabelValues("liveness_failed").Inc()
		ev.Message = lv.Reason
		h.publish(c.Request.Context(), "rejected", &ev)
		c.JSON(http.StatusOK, dto.RecognizeResponse{
			Success: false,
			Live:    false,
			Message: lv.Reason,
		})
		return
	}
	observability.LivenessChecks.WithLabelValues("pass").Inc()

	img, err := imaging.DecodeBase64Image(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "decode image: " + err.Error()})
		return
	}

	descriptor, found, err := h.extractor.Extract(img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "extract descriptor: " + err.Error()})
		return
	}
	if !found {
		observability.RecognitionAttempts.WithLabelValues("no_face").Inc()
		ev.Message = "No face detected in the image. Please position your face in the frame."
		h.publish(c.Request.Context(), "rejected", &ev)
		c.JSON(http.StatusOK, dto.RecognizeResponse{
			Success: false,
			Live:    true,
			Message: ev.Message,
		})
		return
	}
	ev.Descriptor = descriptor

	entries, err := h.gallery.Entries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "load gallery: " + err.Error()})
		return
	}
	if len(entries) == 0 {
		observability.RecognitionAttempts.WithLabelValues("empty_gallery").Inc()
		ev.Message = "No registered employees. Please enroll first."
		h.publish(c.Request.Context(), "rejected", &ev)
		c.JSON(http.StatusOK, dto.RecognizeResponse{
			Success: false,
			Live:    true,
			Message: ev.Message,
		})
		return
	}

	match := h.matcher.Match(descriptor, entries)
	ev.Matched = match.Matched
	ev.Distance = match.Distance
	ev.Similarity = match.Similarity
	if !match.Matched {
		observability.RecognitionAttempts.WithLabelValues("no_match").Inc()
		ev.Message = "Face not recognized. Please try again or contact the administrator."
		h.snapshot(c.Request.Context(), &ev, img)
		h.publish(c.Request.Context(), "rejected", &ev)
		c.JSON(http.StatusOK, dto.RecognizeResponse{
			Success:    false,
			Live:       true,
			Matched:    false,
			Similarity: match.Similarity,
			Message:    ev.Message,
		})
		return
	}
	observability.RecognitionAttempts.WithLabelValues("matched").Inc()

	employeeID := match.EmployeeID
	ev.EmployeeID = &employeeID
	ev.EmployeeCode = match.Code

	if emp, err := h.db.GetEmployee(c.Request.Context(), employeeID); err == nil && emp != nil {
		ev.FullName = emp.FullName
	}

	outcome, err := h.recorder.Clock(c.Request.Context(), employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "record attendance: " + err.Error()})
		return
	}
	ev.Message = outcome.Message
	if outcome.Accepted {
		ev.Slot = outcome.Slot
		ev.SlotTime = outcome.Time
		ev.Late = outcome.Late
	}

	h.snapshot(c.Request.Context(), &ev, img)
	kind := "clocked"
	if !outcome.Accepted {
		kind = "rejected"
	}
	h.publish(c.Request.Context(), kind, &ev)

	c.JSON(http.StatusOK, dto.RecognizeResponse{
		Success:      outcome.Accepted,
		Live:         true,
		Matched:      true,
		Confidence:   lv.Confidence,
		EmployeeID:   &employeeID,
		EmployeeCode: match.Code,
		FullName:     ev.FullName,
		Similarity:   match.Similarity,
		Slot:         ev.Slot,
		SlotTime:     ev.SlotTime,
		Late:         ev.Late,
		Message:      outcome.Message,
	})
}

// snapshot uploads the probe image so unmatched or disputed attempts can be
// reviewed. Failure to upload is logged, not fatal.
func (h *RecognitionHandler) snapshot(ctx context.Context, ev *models.AttendanceEvent, img image.Image) {
	jpeg := vision.EncodeJPEG(img, 85)
	if jpeg == nil {
		return
	}
	key, err := h.minio.PutSnapshot(ctx, ev.EventID, jpeg)
	if err != nil {
		slog.Warn("upload snapshot", "error", err, "event_id", ev.EventID)
		return
	}
	ev.SnapshotKey = key
}

func (h *RecognitionHandler) publish(ctx context.Context, kind string, ev *models.AttendanceEvent) {
	if err := h.producer.PublishAttendance(ctx, kind, ev); err != nil {
		slog.Error("publish attendance event", "error", err, "event_id", ev.EventID)
	}
}
