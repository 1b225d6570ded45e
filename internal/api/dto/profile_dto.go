package dto

import (
	"time"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// ProfileRequest payload for the profile upsert.
type ProfileRequest struct {
	FullName string      `json:"full_name"`
	Phone    string      `json:"phone"`
	Role     domain.Role `json:"role"`
}

// ProfileResponse response.
type ProfileResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	FullName    string             `json:"full_name"`
	Phone       string             `json:"phone"`
	Role        domain.Role        `json:"role"`
	AdminStatus domain.AdminStatus `json:"admin_status,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
