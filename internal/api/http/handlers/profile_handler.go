package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/dto"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/service"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// ProfileHandler manages the caller's own profile.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: profileService}
}

// Upsert handles PUT /profile.
func (h *ProfileHandler) Upsert(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	profile, err := h.service.CreateOrUpdate(c.UserContext(), principal.User.ID, req.FullName, req.Phone, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// Get handles GET /profile. Returns null data when no profile exists yet.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("user required")
	}
	profile, err := h.service.Get(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

func profileResponse(profile *domain.UserProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:          profile.ID,
		UserID:      profile.UserID,
		FullName:    profile.FullName,
		Phone:       profile.Phone,
		Role:        profile.Role,
		AdminStatus: profile.AdminStatus,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
