package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/imaging"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/internal/vision"
	"github.com/your-org/facepoint/pkg/dto"
)

type EventHandler struct {
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	extractor *vision.Extractor
}

func NewEventHandler(db *storage.PostgresStore, minio *storage.MinIOStore, extractor *vision.Extractor) *EventHandler {
	return &EventHandler{db: db, minio: minio, extractor: extractor}
}

// List returns recognition events, newest first, with optional employee and
// time-range filters.
func (h *EventHandler) List(c *gin.Context) {
	var employeeID *uuid.UUID
	if v := c.Query("employee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee_id"})
			return
		}
		employeeID = &id
	}

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "from must be RFC3339"})
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "to must be RFC3339"})
			return
		}
		to = &t
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, total, err := h.db.QueryEvents(c.Request.Context(), employeeID, from, to, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.EventListResponse{Events: events, Total: total})
}

// Snapshot streams the stored probe image for an event.
func (h *EventHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid event id"})
		return
	}

	key := storage.SnapshotPrefix + id.String() + ".jpg"
	data, err := h.minio.GetObject(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// SearchEvents extracts a descriptor from the submitted image and finds past
// recognition attempts with a similar face.
func (h *EventHandler) SearchEvents(c *gin.Context) {
	var req dto.SearchEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Threshold == 0 {
		req.Threshold = 0.5
	}

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
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "no face detected in the image"})
		return
	}

	matches, err := h.db.SearchEvents(c.Request.Context(), descriptor, req.Threshold, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches, "total": len(matches)})
}
