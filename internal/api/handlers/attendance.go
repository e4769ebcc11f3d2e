package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/attendance"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/pkg/dto"
)

type AttendanceHandler struct {
	db *storage.PostgresStore
}

func NewAttendanceHandler(db *storage.PostgresStore) *AttendanceHandler {
	return &AttendanceHandler{db: db}
}

// List returns all attendance records for a date (default today), with the
// daily summary counters.
func (h *AttendanceHandler) List(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	records, err := h.db.ListAttendanceByDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	employees, err := h.db.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	names := make(map[string][2]string, len(employees))
	for _, e := range employees {
		names[e.ID.String()] = [2]string{e.Code, e.FullName}
	}

	out := make([]dto.AttendanceRecord, 0, len(records))
	for _, r := range records {
		rec := dto.AttendanceRecord{Attendance: r}
		if n, ok := names[r.EmployeeID.String()]; ok {
			rec.EmployeeCode = n[0]
			rec.FullName = n[1]
		}
		out = append(out, rec)
	}

	summary, err := h.db.DailySummary(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.AttendanceListResponse{
		Date:    date,
		Records: out,
		Summary: summary,
	})
}

// historyLimit caps how many rows a history request returns.
const historyLimit = 50

// History returns recent attendance records over a rolling week or month,
// optionally filtered to a single employee.
func (h *AttendanceHandler) History(c *gin.Context) {
	rng := c.DefaultQuery("range", attendance.RangeWeek)
	if rng != attendance.RangeWeek && rng != attendance.RangeMonth {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "range must be week or month"})
		return
	}

	var employeeID *uuid.UUID
	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee id"})
			return
		}
		employeeID = &id
	}

	since := attendance.HistoryStart(rng, time.Now())
	records, err := h.db.ListAttendanceSince(c.Request.Context(), since, employeeID, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	employees, err := h.db.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	names := make(map[string][2]string, len(employees))
	for _, e := range employees {
		names[e.ID.String()] = [2]string{e.Code, e.FullName}
	}

	out := make([]dto.AttendanceRecord, 0, len(records))
	for _, r := range records {
		rec := dto.AttendanceRecord{Attendance: r}
		if n, ok := names[r.EmployeeID.String()]; ok {
			rec.EmployeeCode = n[0]
			rec.FullName = n[1]
		}
		out = append(out, rec)
	}

	c.JSON(http.StatusOK, dto.AttendanceHistoryResponse{
		Range:   rng,
		Since:   since,
		Records: out,
	})
}

// Summary returns only the dashboard counters for a date.
func (h *AttendanceHandler) Summary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	summary, err := h.db.DailySummary(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
