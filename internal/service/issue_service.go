package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/events"
	"github.com/spec-kit/civifix-service/internal/repository"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

const fixedProofMessage = "Issue marked as fixed. Proof photo attached."

// IssueService owns the issue lifecycle: submission with derived priority,
// assignment, guarded status transitions, comments and the scoped read views.
type IssueService struct {
	issues      repository.IssueRepository
	comments    repository.CommentRepository
	profiles    repository.ProfileRepository
	technicians repository.TechnicianRepository
	dispatcher  events.Dispatcher
}

// IssueDependencies bundles repositories for the issue service.
type IssueDependencies struct {
	IssueRepo      repository.IssueRepository
	CommentRepo    repository.CommentRepository
	ProfileRepo    repository.ProfileRepository
	TechnicianRepo repository.TechnicianRepository
	Dispatcher     events.Dispatcher
}

// IssueCreateInput describes a citizen submission.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.IssueCategory
	Photo       string
	Latitude    float64
	Longitude   float64
}

// IssueWithNames decorates an issue with resolved display names.
type IssueWithNames struct {
	domain.Issue
	ReporterName   string
	TechnicianName string
}

// CommentWithAuthor decorates a comment with its author's display name.
type CommentWithAuthor struct {
	domain.Comment
	AuthorName string
}

// IssueDetail is the full single-issue view including the comment thread.
type IssueDetail struct {
	IssueWithNames
	Comments []CommentWithAuthor
}

// PublicStats is the unauthenticated landing-page summary. Recent issues
// carry only non-identifying fields.
type PublicStats struct {
	TotalIssues    int64                          `json:"total_issues"`
	PendingIssues  int64                          `json:"pending_issues"`
	AssignedIssues int64                          `json:"assigned_issues"`
	FixedIssues    int64                          `json:"fixed_issues"`
	ByCategory     map[domain.IssueCategory]int64 `json:"by_category"`
	RecentIssues   []domain.Issue                 `json:"-"`
}

// DashboardStats is the approved-admin dashboard summary.
type DashboardStats struct {
	TotalIssues    int64                          `json:"total_issues"`
	PendingIssues  int64                          `json:"pending_issues"`
	AssignedIssues int64                          `json:"assigned_issues"`
	FixedIssues    int64                          `json:"fixed_issues"`
	HighPriority   int64                          `json:"high_priority"`
	ByCategory     map[domain.IssueCategory]int64 `json:"by_category"`
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:      deps.IssueRepo,
		comments:    deps.CommentRepo,
		profiles:    deps.ProfileRepo,
		technicians: deps.TechnicianRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// Create validates a submission and derives its priority: High when another
// unresolved issue sits within the bounding box, Medium otherwise. Low is
// never assigned here; it is only reachable via admin override.
func (s *IssueService) Create(ctx context.Context, userID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewValidationError("coordinates out of range", nil)
	}

	nearby, err := s.issues.ExistsUnresolvedNear(ctx, input.Latitude, input.Longitude, domain.NearbyThresholdDegrees)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	priority := domain.PriorityMedium
	if nearby {
		priority = domain.PriorityHigh
	}

	issue := &domain.Issue{
		ExternalKey: generateIssueKey(),
		Title:       title,
		Description: description,
		Category:    input.Category,
		Photo:       input.Photo,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Status:      domain.IssueStatusPending,
		Priority:    priority,
		ReportedBy:  userID,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssueCreated,
		IssueID:     issue.ID,
		ActorUserID: userID,
		Payload: events.IssueCreatedPayload{
			Category: issue.Category,
			Priority: issue.Priority,
			Title:    issue.Title,
		},
	})
	return issue, nil
}

// AssignTechnician puts an issue into the Assigned state. Admin only.
// Re-assignment silently overwrites a previous assignee, and availability
// is deliberately not checked.
func (s *IssueService) AssignTechnician(ctx context.Context, callerUserID, issueID, technicianID string) (*domain.Issue, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.AssignedTo = &tech.ID
	issue.Status = domain.IssueStatusAssigned
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssueAssigned,
		IssueID:     issue.ID,
		ActorUserID: callerUserID,
		Payload:     events.IssueAssignedPayload{TechnicianID: tech.ID},
	})
	return issue, nil
}

// UpdateStatus moves an issue along the guarded lifecycle. Admin only.
// Unlike assignment, moving back to Pending detaches the technician.
func (s *IssueService) UpdateStatus(ctx context.Context, callerUserID, issueID string, next domain.IssueStatus) (*domain.Issue, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(issue.Status, next) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": issue.Status,
			"to":   next,
		})
	}
	if next == domain.IssueStatusAssigned && issue.AssignedTo == nil {
		return nil, apperrors.NewValidationError("cannot mark assigned without a technician", nil)
	}

	old := issue.Status
	issue.Status = next
	if domain.ClearsAssignee(next) {
		issue.AssignedTo = nil
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssueStatusChanged,
		IssueID:     issue.ID,
		ActorUserID: callerUserID,
		Payload:     events.IssueStatusChangedPayload{OldStatus: old, NewStatus: next},
	})
	return issue, nil
}

// UpdatePriority overwrites priority independent of status. Admin only.
func (s *IssueService) UpdatePriority(ctx context.Context, callerUserID, issueID string, priority domain.IssuePriority) (*domain.Issue, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	old := issue.Priority
	issue.Priority = priority
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssuePriorityChanged,
		IssueID:     issue.ID,
		ActorUserID: callerUserID,
		Payload:     events.IssuePriorityChangedPayload{OldPriority: old, NewPriority: priority},
	})
	return issue, nil
}

// MarkFixed closes out an issue. Technician only, and only by the technician
// the issue is currently assigned to. A proof photo appends a completion
// comment to the thread.
func (s *IssueService) MarkFixed(ctx context.Context, callerUserID, issueID, proofPhoto string) (*domain.Issue, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleTechnician); err != nil {
		return nil, err
	}
	tech, err := s.technicians.GetByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, apperrors.MapError(err)
	}

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.AssignedTo == nil || *issue.AssignedTo != tech.ID {
		return nil, apperrors.NewForbidden("you are not assigned to this issue")
	}

	old := issue.Status
	issue.Status = domain.IssueStatusFixed
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	if strings.TrimSpace(proofPhoto) != "" {
		comment := &domain.Comment{
			IssueID:      issue.ID,
			AuthorUserID: callerUserID,
			Message:      fixedProofMessage,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssueFixed,
		IssueID:     issue.ID,
		ActorUserID: callerUserID,
		Payload:     events.IssueStatusChangedPayload{OldStatus: old, NewStatus: issue.Status},
	})
	return issue, nil
}

// Delete removes an issue and its comment thread. Admin or SuperAdmin.
// The cascade is sequenced, not transactional: comments first, then the issue.
func (s *IssueService) Delete(ctx context.Context, callerUserID, issueID string) error {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin, domain.RoleSuperAdmin); err != nil {
		return err
	}
	if _, err := s.comments.DeleteByIssue(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventIssueDeleted,
		IssueID:     issueID,
		ActorUserID: callerUserID,
	})
	return nil
}

// AddComment appends to an issue thread. Any authenticated user may comment
// on any issue; there is no ownership restriction.
func (s *IssueService) AddComment(ctx context.Context, callerUserID, issueID, message string) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	if _, err := s.getIssue(ctx, issueID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		IssueID:      issueID,
		AuthorUserID: callerUserID,
		Message:      message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventCommentAdded,
		IssueID:     issueID,
		ActorUserID: callerUserID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(comment.Message, 120),
		},
	})
	return comment, nil
}

// ListMine returns the caller's own reports, newest first.
func (s *IssueService) ListMine(ctx context.Context, callerUserID string) ([]domain.Issue, error) {
	issues, err := s.issues.ListByReporter(ctx, callerUserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListAssigned returns the caller technician's queue, most urgent first,
// with reporter names attached.
func (s *IssueService) ListAssigned(ctx context.Context, callerUserID string) ([]IssueWithNames, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleTechnician); err != nil {
		return nil, err
	}
	tech, err := s.technicians.GetByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, apperrors.MapError(err)
	}

	issues, err := s.issues.ListByAssignee(ctx, tech.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.attachNames(ctx, issues)
}

// ListAll returns every issue with reporter and technician names. Admin
// (approved) or SuperAdmin.
func (s *IssueService) ListAll(ctx context.Context, callerUserID string) ([]IssueWithNames, error) {
	profile, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin, domain.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if err := requireApprovedAdmin(profile); err != nil {
		return nil, err
	}

	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.attachNames(ctx, issues)
}

// Get returns the full detail view including the comment thread. Requires
// authentication only; any signed-in user may read any issue.
func (s *IssueService) Get(ctx context.Context, issueID string) (*IssueDetail, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	decorated, err := s.attachNames(ctx, []domain.Issue{*issue})
	if err != nil {
		return nil, err
	}
	detail := &IssueDetail{IssueWithNames: decorated[0]}

	comments, err := s.comments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	authorNames, err := s.profileNames(ctx, commentAuthorIDs(comments))
	if err != nil {
		return nil, err
	}
	detail.Comments = make([]CommentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		detail.Comments = append(detail.Comments, CommentWithAuthor{
			Comment:    comment,
			AuthorName: nameOrUnknown(authorNames, comment.AuthorUserID),
		})
	}
	return detail, nil
}

// ListForMap returns every issue; the handler projects it down to pins.
func (s *IssueService) ListForMap(ctx context.Context) ([]domain.Issue, error) {
	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListTechnicians returns the assignable technician roster. Admin only.
func (s *IssueService) ListTechnicians(ctx context.Context, callerUserID string) ([]domain.Technician, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	techs, err := s.technicians.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return techs, nil
}

// PublicStats summarizes issue counts for the unauthenticated landing page.
func (s *IssueService) PublicStats(ctx context.Context) (*PublicStats, error) {
	statusCounts, err := s.issues.CountsByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categoryCounts, err := s.issues.CountsByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := s.issues.ListRecent(ctx, 5)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &PublicStats{
		PendingIssues:  statusCounts[domain.IssueStatusPending],
		AssignedIssues: statusCounts[domain.IssueStatusAssigned],
		FixedIssues:    statusCounts[domain.IssueStatusFixed],
		ByCategory:     fullCategoryCounts(categoryCounts),
		RecentIssues:   recent,
	}
	for _, count := range statusCounts {
		stats.TotalIssues += count
	}
	return stats, nil
}

// DashboardStats summarizes issues for the admin dashboard. Admin (approved)
// or SuperAdmin.
func (s *IssueService) DashboardStats(ctx context.Context, callerUserID string) (*DashboardStats, error) {
	profile, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleAdmin, domain.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if err := requireApprovedAdmin(profile); err != nil {
		return nil, err
	}

	statusCounts, err := s.issues.CountsByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categoryCounts, err := s.issues.CountsByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	highPriority, err := s.issues.CountUnresolvedHighPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &DashboardStats{
		PendingIssues:  statusCounts[domain.IssueStatusPending],
		AssignedIssues: statusCounts[domain.IssueStatusAssigned],
		FixedIssues:    statusCounts[domain.IssueStatusFixed],
		HighPriority:   highPriority,
		ByCategory:     fullCategoryCounts(categoryCounts),
	}
	for _, count := range statusCounts {
		stats.TotalIssues += count
	}
	return stats, nil
}

func (s *IssueService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

// attachNames does the batch lookup join: one profile fetch for reporters,
// one technician fetch for assignees, then an id->name mapping per row.
func (s *IssueService) attachNames(ctx context.Context, issues []domain.Issue) ([]IssueWithNames, error) {
	reporterIDs := make([]string, 0, len(issues))
	techIDs := make([]string, 0, len(issues))
	seenReporter := make(map[string]struct{})
	seenTech := make(map[string]struct{})
	for _, issue := range issues {
		if _, ok := seenReporter[issue.ReportedBy]; !ok {
			seenReporter[issue.ReportedBy] = struct{}{}
			reporterIDs = append(reporterIDs, issue.ReportedBy)
		}
		if issue.AssignedTo != nil {
			if _, ok := seenTech[*issue.AssignedTo]; !ok {
				seenTech[*issue.AssignedTo] = struct{}{}
				techIDs = append(techIDs, *issue.AssignedTo)
			}
		}
	}

	reporterNames, err := s.profileNames(ctx, reporterIDs)
	if err != nil {
		return nil, err
	}
	techNames, err := s.technicianNames(ctx, techIDs)
	if err != nil {
		return nil, err
	}

	result := make([]IssueWithNames, 0, len(issues))
	for _, issue := range issues {
		row := IssueWithNames{
			Issue:        issue,
			ReporterName: nameOrUnknown(reporterNames, issue.ReportedBy),
		}
		if issue.AssignedTo != nil {
			row.TechnicianName = techNames[*issue.AssignedTo]
		}
		result = append(result, row)
	}
	return result, nil
}

func (s *IssueService) profileNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	profiles, err := s.profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		names[profile.UserID] = profile.FullName
	}
	return names, nil
}

func (s *IssueService) technicianNames(ctx context.Context, ids []string) (map[string]string, error) {
	techs, err := s.technicians.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make(map[string]string, len(techs))
	for _, tech := range techs {
		names[tech.ID] = tech.Name
	}
	return names, nil
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func commentAuthorIDs(comments []domain.Comment) []string {
	seen := make(map[string]struct{}, len(comments))
	ids := make([]string, 0, len(comments))
	for _, comment := range comments {
		if _, ok := seen[comment.AuthorUserID]; ok {
			continue
		}
		seen[comment.AuthorUserID] = struct{}{}
		ids = append(ids, comment.AuthorUserID)
	}
	return ids
}

func nameOrUnknown(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return "Unknown"
}

func fullCategoryCounts(counts map[domain.IssueCategory]int64) map[domain.IssueCategory]int64 {
	full := make(map[domain.IssueCategory]int64, len(domain.IssueCategories))
	for _, category := range domain.IssueCategories {
		full[category] = counts[category]
	}
	return full
}

func generateIssueKey() string {
	return "CIV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
