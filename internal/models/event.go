package models

import (
	"time"

	"github.com/google/uuid"
)

// RecognitionEvent is the audit record for one clock-in attempt, matched or
// not. The probe descriptor is kept as a vector column so past attempts can
// be searched by similarity.
type RecognitionEvent struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	EmployeeID     *uuid.UUID `json:"employee_id,omitempty" db:"employee_id"`
	Matched        bool       `json:"matched" db:"matched"`
	Distance       float64    `json:"distance" db:"distance"`
	Similarity     float64    `json:"similarity" db:"similarity"`
	Live           bool       `json:"live" db:"live"`
	LivenessReason string     `json:"liveness_reason,omitempty" db:"liveness_reason"`
	Slot           string     `json:"slot,omitempty" db:"slot"`
	SnapshotKey    string     `json:"snapshot_key,omitempty" db:"snapshot_key"`
	Descriptor     []float32  `json:"-" db:"descriptor"`
	Timestamp      time.Time  `json:"timestamp" db:"timestamp"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// AttendanceEvent is the message published to NATS after each recognition
// attempt so the API can persist the audit row and feed live dashboards.
type AttendanceEvent struct {
	EventID        uuid.UUID  `json:"event_id"`
	EmployeeID     *uuid.UUID `json:"employee_id,omitempty"`
	EmployeeCode   string     `json:"employee_code,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	Matched        bool       `json:"matched"`
	Distance       float64    `json:"distance"`
	Similarity     float64    `json:"similarity"`
	Live           bool       `json:"live"`
	LivenessReason string     `json:"liveness_reason,omitempty"`
	Slot           string     `json:"slot,omitempty"`
	SlotTime       string     `json:"slot_time,omitempty"`
	Late           bool       `json:"late,omitempty"`
	Message        string     `json:"message"`
	SnapshotKey    string     `json:"snapshot_key,omitempty"`
	Descriptor     []float32  `json:"descriptor,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}
