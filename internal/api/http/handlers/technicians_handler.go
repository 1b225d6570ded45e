package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/dto"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/service"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// TechniciansHandler exposes the technician roster and self-service endpoints.
type TechniciansHandler struct {
	issues      *service.IssueService
	technicians *service.TechnicianService
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(issueService *service.IssueService, technicianService *service.TechnicianService) *TechniciansHandler {
	return &TechniciansHandler{issues: issueService, technicians: technicianService}
}

// List GET /technicians. Admin only; the roster backs the assignment picker.
func (h *TechniciansHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	techs, err := h.issues.ListTechnicians(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianResponse, 0, len(techs))
	for i := range techs {
		items = append(items, technicianResponse(&techs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetAvailability PATCH /technicians/me/availability.
func (h *TechniciansHandler) SetAvailability(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.SetAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tech, err := h.technicians.SetAvailability(c.UserContext(), principal.User.ID, req.Available)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(tech)})
}

// SetSpecialty PATCH /technicians/me/specialty.
func (h *TechniciansHandler) SetSpecialty(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.SetSpecialtyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tech, err := h.technicians.SetSpecialty(c.UserContext(), principal.User.ID, req.Specialty)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(tech)})
}

func technicianResponse(tech *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:        tech.ID,
		UserID:    tech.UserID,
		Name:      tech.Name,
		Phone:     tech.Phone,
		Specialty: tech.Specialty,
		Available: tech.Available,
		CreatedAt: tech.CreatedAt,
		UpdatedAt: tech.UpdatedAt,
	}
}
