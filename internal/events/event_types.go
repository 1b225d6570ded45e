package events

import (
	"time"

	"github.com/spec-kit/civifix-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated         EventType = "issue_created"
	EventIssueAssigned        EventType = "issue_assigned"
	EventIssueStatusChanged   EventType = "issue_status_changed"
	EventIssuePriorityChanged EventType = "issue_priority_changed"
	EventIssueFixed           EventType = "issue_fixed"
	EventIssueDeleted         EventType = "issue_deleted"
	EventCommentAdded         EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	IssueID     string      `json:"issue_id"`
	ActorUserID string      `json:"actor_user_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category domain.IssueCategory `json:"category"`
	Priority domain.IssuePriority `json:"priority"`
	Title    string               `json:"title"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssuePriorityChangedPayload payload.
type IssuePriorityChangedPayload struct {
	OldPriority domain.IssuePriority `json:"old_priority"`
	NewPriority domain.IssuePriority `json:"new_priority"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}
