package models

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusLate    AttendanceStatus = "Late"
	StatusAbsent  AttendanceStatus = "Absent"
)

const VerificationFace = "Face Recognition"

// Attendance is one employee's daily record. Slot values are clock strings
// in "03:04 PM" form; empty means the slot has not been filled.
type Attendance struct {
	ID                 int64            `json:"attendance_id" db:"attendance_id"`
	EmployeeID         uuid.UUID        `json:"employee_id" db:"employee_id"`
	Date               string           `json:"date" db:"date"` // ISO date, local zone
	MorningIn          string           `json:"morning_in" db:"morning_in"`
	LunchOut           string           `json:"lunch_out" db:"lunch_out"`
	AfternoonIn        string           `json:"afternoon_in" db:"afternoon_in"`
	TimeOut            string           `json:"time_out" db:"time_out"`
	Status             AttendanceStatus `json:"attendance_status" db:"attendance_status"`
	VerificationMethod string           `json:"verification_method" db:"verification_method"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
}

// DailySummary backs the dashboard counters.
type DailySummary struct {
	Date           string `json:"date"`
	TotalEmployees int    `json:"total_employees"`
	Present        int    `json:"present"`
	Absent         int    `json:"absent"`
	Late           int    `json:"late"`
}
