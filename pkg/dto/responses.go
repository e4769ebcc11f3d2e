package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/models"
)

// RecognizeResponse is the kiosk-facing outcome of one capture.
type RecognizeResponse struct {
	Success    bool    `json:"success"`
	Matched    bool    `json:"matched"`
	Live       bool    `json:"live"`
	Confidence float64 `json:"confidence,omitempty"`
	Message    string  `json:"message"`

	EmployeeID   *uuid.UUID `json:"employee_id,omitempty"`
	EmployeeCode string     `json:"employee_code,omitempty"`
	FullName     string     `json:"full_name,omitempty"`
	Similarity   float64    `json:"similarity,omitempty"`

	Slot     string `json:"slot,omitempty"`
	SlotTime string `json:"slot_time,omitempty"`
	Late     bool   `json:"late,omitempty"`
}

type EmployeeResponse struct {
	Employee *models.Employee `json:"employee"`
}

type EmployeeListResponse struct {
	Employees []models.Employee `json:"employees"`
	Total     int               `json:"total"`
}

type AttendanceListResponse struct {
	Date    string              `json:"date"`
	Records []AttendanceRecord  `json:"records"`
	Summary *models.DailySummary `json:"summary,omitempty"`
}

// AttendanceHistoryResponse is the rolling week/month history view.
type AttendanceHistoryResponse struct {
	Range   string             `json:"range"`
	Since   string             `json:"since"`
	Records []AttendanceRecord `json:"records"`
}

// AttendanceRecord joins the daily record with employee identity for
// dashboard listings.
type AttendanceRecord struct {
	models.Attendance
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
}

type EventListResponse struct {
	Events []models.RecognitionEvent `json:"events"`
	Total  int                       `json:"total"`
}

// WSEvent is pushed to dashboard WebSocket clients after every recognition
// attempt.
type WSEvent struct {
	Type         string     `json:"type"` // "attendance"
	EventID      uuid.UUID  `json:"event_id"`
	EmployeeID   *uuid.UUID `json:"employee_id,omitempty"`
	EmployeeCode string     `json:"employee_code,omitempty"`
	FullName     string     `json:"full_name,omitempty"`
	Matched      bool       `json:"matched"`
	Live         bool       `json:"live"`
	Similarity   float64    `json:"similarity,omitempty"`
	Slot         string     `json:"slot,omitempty"`
	SlotTime     string     `json:"slot_time,omitempty"`
	Late         bool       `json:"late,omitempty"`
	Message      string     `json:"message"`
	Timestamp    time.Time  `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
