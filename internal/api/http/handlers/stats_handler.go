package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/dto"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/service"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// StatsHandler exposes the public landing stats and the admin dashboard.
type StatsHandler struct {
	service *service.IssueService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(issueService *service.IssueService) *StatsHandler {
	return &StatsHandler{service: issueService}
}

// Public GET /stats/public. No authentication; recent issues are anonymized.
func (h *StatsHandler) Public(c *fiber.Ctx) error {
	stats, err := h.service.PublicStats(c.UserContext())
	if err != nil {
		return err
	}
	recent := make([]dto.RecentIssue, 0, len(stats.RecentIssues))
	for _, issue := range stats.RecentIssues {
		recent = append(recent, dto.RecentIssue{
			Title:     issue.Title,
			Category:  issue.Category,
			Status:    issue.Status,
			CreatedAt: issue.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"total_issues":    stats.TotalIssues,
		"pending_issues":  stats.PendingIssues,
		"assigned_issues": stats.AssignedIssues,
		"fixed_issues":    stats.FixedIssues,
		"by_category":     stats.ByCategory,
		"recent_issues":   recent,
	}})
}

// Dashboard GET /stats/dashboard. Approved admins and superadmins.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	stats, err := h.service.DashboardStats(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
