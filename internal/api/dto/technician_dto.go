package dto

import "time"

// SetAvailabilityRequest payload.
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// SetSpecialtyRequest payload.
type SetSpecialtyRequest struct {
	Specialty string `json:"specialty"`
}

// TechnicianResponse response.
type TechnicianResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Specialty string    `json:"specialty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
