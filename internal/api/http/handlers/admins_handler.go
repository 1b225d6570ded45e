package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/dto"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/service"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// AdminsHandler exposes the superadmin approval workflow.
type AdminsHandler struct {
	service *service.ProfileService
}

// NewAdminsHandler constructs handler.
func NewAdminsHandler(profileService *service.ProfileService) *AdminsHandler {
	return &AdminsHandler{service: profileService}
}

// ListPending GET /admins/pending.
func (h *AdminsHandler) ListPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	admins, err := h.service.ListPendingAdmins(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(admins))
	for i := range admins {
		items = append(items, profileResponse(&admins[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// List GET /admins.
func (h *AdminsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	admins, err := h.service.ListAdmins(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(admins))
	for i := range admins {
		items = append(items, profileResponse(&admins[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Approve POST /admins/:id/approve.
func (h *AdminsHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, h.service.ApproveAdmin)
}

// Reject POST /admins/:id/reject.
func (h *AdminsHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, h.service.RejectAdmin)
}

// Revoke POST /admins/:id/revoke.
func (h *AdminsHandler) Revoke(c *fiber.Ctx) error {
	return h.decide(c, h.service.RevokeAdmin)
}

// Stats GET /admins/stats.
func (h *AdminsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	stats, err := h.service.Stats(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

func (h *AdminsHandler) decide(c *fiber.Ctx, decision func(ctx context.Context, callerUserID, adminProfileID string) error) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	if err := decision(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id")}})
}
