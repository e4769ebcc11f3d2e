package dto

// RecognizeRequest carries one kiosk capture: a primary image for matching
// plus the frame burst for the liveness check. All images are base64-encoded
// JPEG/PNG, optionally with a data-URL prefix.
type RecognizeRequest struct {
	Image  string   `json:"image" binding:"required"`
	Frames []string `json:"frames" binding:"required"`
}

type CreateEmployeeRequest struct {
	EmployeeCode string `json:"employee_code" binding:"required"`
	FullName     string `json:"full_name" binding:"required"`
}

// SetFaceRequest enrolls or re-captures an employee's face from a single
// base64 photo.
type SetFaceRequest struct {
	Image string `json:"image" binding:"required"`
}

type UpdateEmployeeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SearchEventsRequest finds past recognition attempts similar to the face in
// the given image.
type SearchEventsRequest struct {
	Image     string  `json:"image" binding:"required"`
	Threshold float64 `json:"threshold"`
	Limit     int     `json:"limit"`
}
