package dto

import (
	"time"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
	Photo       string               `json:"photo"`
	Latitude    float64              `json:"latitude"`
	Longitude   float64              `json:"longitude"`
}

// AssignIssueRequest payload.
type AssignIssueRequest struct {
	TechnicianID string `json:"technician_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.IssuePriority `json:"priority"`
}

// MarkFixedRequest payload. The proof photo is optional.
type MarkFixedRequest struct {
	ProofPhoto string `json:"proof_photo"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// IssueSummary response.
type IssueSummary struct {
	ID             string               `json:"id"`
	ExternalKey    string               `json:"external_key"`
	Title          string               `json:"title"`
	Category       domain.IssueCategory `json:"category"`
	Photo          string               `json:"photo,omitempty"`
	Latitude       float64              `json:"latitude"`
	Longitude      float64              `json:"longitude"`
	Status         domain.IssueStatus   `json:"status"`
	Priority       domain.IssuePriority `json:"priority"`
	AssignedTo     *string              `json:"assigned_to"`
	ReporterName   string               `json:"reporter_name,omitempty"`
	TechnicianName string               `json:"technician_name,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides full issue info with the comment thread.
type IssueDetailResponse struct {
	IssueSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// MapPin is the minimal projection used by the public map view.
type MapPin struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Category  domain.IssueCategory `json:"category"`
	Status    domain.IssueStatus   `json:"status"`
	Priority  domain.IssuePriority `json:"priority"`
	Latitude  float64              `json:"latitude"`
	Longitude float64              `json:"longitude"`
}

// RecentIssue is the anonymized landing-page projection.
type RecentIssue struct {
	Title     string               `json:"title"`
	Category  domain.IssueCategory `json:"category"`
	Status    domain.IssueStatus   `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}
