package domain

import "time"

// Comment is an append-only note on an issue thread. Comments are never
// edited; they are deleted only as a cascade with their parent issue.
type Comment struct {
	ID           string
	IssueID      string
	AuthorUserID string
	Message      string
	CreatedAt    time.Time
}
