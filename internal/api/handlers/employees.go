package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/imaging"
	"github.com/your-org/facepoint/internal/models"
	"github.com/your-org/facepoint/internal/recognize"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/internal/vision"
	"github.com/your-org/facepoint/pkg/dto"
)

type EmployeeHandler struct {
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	extractor *vision.Extractor
	gallery   *recognize.Cache
}

func NewEmployeeHandler(db *storage.PostgresStore, minio *storage.MinIOStore,
	extractor *vision.Extractor, gallery *recognize.Cache) *EmployeeHandler {
	return &EmployeeHandler{db: db, minio: minio, extractor: extractor, gallery: gallery}
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	emp, err := h.db.CreateEmployee(c.Request.Context(), req.EmployeeCode, req.FullName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.EmployeeResponse{Employee: emp})
}

func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.db.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.EmployeeListResponse{Employees: employees, Total: len(employees)})
}

func (h *EmployeeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee id"})
		return
	}

	emp, err := h.db.GetEmployee(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if emp == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "employee not found"})
		return
	}

	c.JSON(http.StatusOK, dto.EmployeeResponse{Employee: emp})
}

// SetFace enrolls or re-captures the employee's face descriptor from a
// single photo, then invalidates the gallery so the next recognition sees
// the fresh descriptor.
func (h *EmployeeHandler) SetFace(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee id"})
		return
	}

	var req dto.SetFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
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
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: "no face detected in the enrollment photo",
		})
		return
	}

	photoKey := ""
	if jpeg := vision.EncodeJPEG(img, 90); jpeg != nil {
		if key, err := h.minio.PutPhoto(c.Request.Context(), id, jpeg); err == nil {
			photoKey = key
		}
	}

	if err := h.db.SetDescriptor(c.Request.Context(), id, descriptor, photoKey); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	h.gallery.Invalidate()

	c.JSON(http.StatusOK, gin.H{"enrolled": true, "photo_key": photoKey})
}

func (h *EmployeeHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee id"})
		return
	}

	var req dto.UpdateEmployeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	status := models.EmployeeStatus(req.Status)
	if status != models.EmployeeActive && status != models.EmployeeInactive {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "status must be Active or Inactive"})
		return
	}

	if err := h.db.SetEmployeeStatus(c.Request.Context(), id, status); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	// Inactive employees are excluded from the gallery.
	h.gallery.Invalidate()

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee id"})
		return
	}

	emp, err := h.db.GetEmployee(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if emp == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "employee not found"})
		return
	}

	if err := h.db.DeleteEmployee(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if emp.PhotoKey != "" {
		_ = h.minio.DeleteObject(c.Request.Context(), emp.PhotoKey)
	}
	h.gallery.Invalidate()

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
