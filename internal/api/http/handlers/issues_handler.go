package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/dto"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/service"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// IssuesHandler manages the issue lifecycle endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.service.Create(c.UserContext(), principal.User.ID, service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Photo:       req.Photo,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// ListMine GET /issues/mine.
func (h *IssuesHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	issues, err := h.service.ListMine(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAssigned GET /issues/assigned.
func (h *IssuesHandler) ListAssigned(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	issues, err := h.service.ListAssigned(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": namedSummaries(issues)})
}

// ListAll GET /issues.
func (h *IssuesHandler) ListAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	issues, err := h.service.ListAll(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": namedSummaries(issues)})
}

// MapView GET /issues/map. Minimal projection for the city map.
func (h *IssuesHandler) MapView(c *fiber.Ctx) error {
	issues, err := h.service.ListForMap(c.UserContext())
	if err != nil {
		return err
	}
	pins := make([]dto.MapPin, 0, len(issues))
	for _, issue := range issues {
		pins = append(pins, dto.MapPin{
			ID:        issue.ID,
			Title:     issue.Title,
			Category:  issue.Category,
			Status:    issue.Status,
			Priority:  issue.Priority,
			Latitude:  issue.Latitude,
			Longitude: issue.Longitude,
		})
	}
	return c.JSON(fiber.Map{"data": pins})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(detail)})
}

// Assign POST /issues/:id/assign.
func (h *IssuesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.AssignIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	issue, err := h.service.AssignTechnician(c.UserContext(), principal.User.ID, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.UpdateStatus(c.UserContext(), principal.User.ID, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// UpdatePriority PATCH /issues/:id/priority.
func (h *IssuesHandler) UpdatePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.UpdatePriority(c.UserContext(), principal.User.ID, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// MarkFixed POST /issues/:id/fix.
func (h *IssuesHandler) MarkFixed(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.MarkFixedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.MarkFixed(c.UserContext(), principal.User.ID, c.Params("id"), req.ProofPhoto)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// Delete DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	if err := h.service.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment POST /issues/:id/comments.
func (h *IssuesHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), principal.User.ID, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         comment.ID,
		"issue_id":   comment.IssueID,
		"message":    comment.Message,
		"created_at": comment.CreatedAt,
	}})
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:          issue.ID,
		ExternalKey: issue.ExternalKey,
		Title:       issue.Title,
		Category:    issue.Category,
		Photo:       issue.Photo,
		Latitude:    issue.Latitude,
		Longitude:   issue.Longitude,
		Status:      issue.Status,
		Priority:    issue.Priority,
		AssignedTo:  issue.AssignedTo,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

func namedSummaries(issues []service.IssueWithNames) []dto.IssueSummary {
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		summary := issueSummary(&issues[i].Issue)
		summary.ReporterName = issues[i].ReporterName
		summary.TechnicianName = issues[i].TechnicianName
		items = append(items, summary)
	}
	return items
}

func issueDetail(detail *service.IssueDetail) dto.IssueDetailResponse {
	summary := issueSummary(&detail.Issue)
	summary.ReporterName = detail.ReporterName
	summary.TechnicianName = detail.TechnicianName

	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, dto.CommentResponse{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Message:    comment.Message,
			CreatedAt:  comment.CreatedAt,
		})
	}
	return dto.IssueDetailResponse{
		IssueSummary: summary,
		Description:  detail.Description,
		Comments:     comments,
	}
}
