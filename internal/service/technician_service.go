package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/repository"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// TechnicianService covers the technician self-service surface: toggling
// availability and updating the advertised specialty.
type TechnicianService struct {
	technicians repository.TechnicianRepository
	profiles    repository.ProfileRepository
}

// NewTechnicianService constructs the service.
func NewTechnicianService(technicians repository.TechnicianRepository, profiles repository.ProfileRepository) *TechnicianService {
	return &TechnicianService{technicians: technicians, profiles: profiles}
}

// SetAvailability flips the caller's availability flag. Technician only.
func (s *TechnicianService) SetAvailability(ctx context.Context, callerUserID string, available bool) (*domain.Technician, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleTechnician); err != nil {
		return nil, err
	}
	if err := s.technicians.SetAvailability(ctx, callerUserID, available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.getByUser(ctx, callerUserID)
}

// SetSpecialty updates the caller's specialty. Technician only.
func (s *TechnicianService) SetSpecialty(ctx context.Context, callerUserID, specialty string) (*domain.Technician, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleTechnician); err != nil {
		return nil, err
	}
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, apperrors.NewValidationError("specialty required", nil)
	}
	if err := s.technicians.SetSpecialty(ctx, callerUserID, specialty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.getByUser(ctx, callerUserID)
}

func (s *TechnicianService) getByUser(ctx context.Context, userID string) (*domain.Technician, error) {
	tech, err := s.technicians.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return tech, nil
}
