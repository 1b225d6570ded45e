package domain

import "time"

// IssueCategory enumerates the closed set of report categories.
type IssueCategory string

const (
	CategoryRoad  IssueCategory = "Road"
	CategoryWater IssueCategory = "Water"
	CategoryPower IssueCategory = "Power"
	CategoryWaste IssueCategory = "Waste"
	CategoryOther IssueCategory = "Other"
)

// IssueCategories lists every valid category.
var IssueCategories = []IssueCategory{
	CategoryRoad, CategoryWater, CategoryPower, CategoryWaste, CategoryOther,
}

// Valid reports whether the category is one of the closed set.
func (c IssueCategory) Valid() bool {
	for _, candidate := range IssueCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending  IssueStatus = "Pending"
	IssueStatusAssigned IssueStatus = "Assigned"
	IssueStatusFixed    IssueStatus = "Fixed"
)

// Valid reports whether the status is a known state.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusAssigned, IssueStatusFixed:
		return true
	}
	return false
}

// IssuePriority enumerates urgency levels. Low is only ever reachable
// through a manual admin override; the escalation rule assigns Medium or High.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "Low"
	PriorityMedium IssuePriority = "Medium"
	PriorityHigh   IssuePriority = "High"
)

// Valid reports whether the priority is a known level.
func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for sorting; higher is more urgent.
func (p IssuePriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// NearbyThresholdDegrees is the half-width of the bounding box used for
// priority escalation: roughly 100 meters at the equator.
const NearbyThresholdDegrees = 0.001

// Issue is the aggregate for citizen reports.
type Issue struct {
	ID          string
	ExternalKey string
	Title       string
	Description string
	Category    IssueCategory
	Photo       string
	Latitude    float64
	Longitude   float64
	Status      IssueStatus
	Priority    IssuePriority
	ReportedBy  string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var allowedTransitions = map[IssueStatus][]IssueStatus{
	IssueStatusPending:  {IssueStatusAssigned},
	IssueStatusAssigned: {IssueStatusPending, IssueStatusFixed},
	IssueStatusFixed:    {IssueStatusPending},
}

// CanTransition reports whether moving from current to next is a legal
// lifecycle step. Same-state writes are not transitions.
func CanTransition(current, next IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ClearsAssignee reports whether entering the status detaches the technician.
func ClearsAssignee(next IssueStatus) bool {
	return next == IssueStatusPending
}
