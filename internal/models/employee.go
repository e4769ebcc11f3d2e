package models

import (
	"time"

	"github.com/google/uuid"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "Active"
	EmployeeInactive EmployeeStatus = "Inactive"
)

type Employee struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Code               string         `json:"employee_code" db:"employee_code"`
	FullName           string         `json:"full_name" db:"full_name"`
	Status             EmployeeStatus `json:"status" db:"status"`
	PhotoKey           string         `json:"photo_key,omitempty" db:"photo_key"`
	DescriptorEncoding string         `json:"-" db:"descriptor_encoding"`
	Enrolled           bool           `json:"enrolled" db:"-"` // has a stored face descriptor
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}
