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

// ProfileService owns profile upsert, the technician-record sync, and the
// superadmin admin-approval workflow.
type ProfileService struct {
	profiles    repository.ProfileRepository
	technicians repository.TechnicianRepository
	issues      repository.IssueRepository
}

// ProfileDependencies bundles repositories for the profile service.
type ProfileDependencies struct {
	ProfileRepo    repository.ProfileRepository
	TechnicianRepo repository.TechnicianRepository
	IssueRepo      repository.IssueRepository
}

// SuperAdminStats summarizes accounts and issues for the superadmin dashboard.
type SuperAdminStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCitizens    int64 `json:"total_citizens"`
	TotalAdmins      int64 `json:"total_admins"`
	PendingAdmins    int64 `json:"pending_admins"`
	ApprovedAdmins   int64 `json:"approved_admins"`
	TotalTechnicians int64 `json:"total_technicians"`
	TotalIssues      int64 `json:"total_issues"`
	ResolvedIssues   int64 `json:"resolved_issues"`
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	return &ProfileService{
		profiles:    deps.ProfileRepo,
		technicians: deps.TechnicianRepo,
		issues:      deps.IssueRepo,
	}
}

// CreateOrUpdate upserts the caller's profile. Submitting with the Technician
// role creates the technician record the first time, seeded from the profile;
// it is never deleted when the role later changes away.
func (s *ProfileService) CreateOrUpdate(ctx context.Context, userID, fullName, phone string, role domain.Role) (*domain.UserProfile, error) {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if fullName == "" || phone == "" {
		return nil, apperrors.NewValidationError("full name and phone required", nil)
	}
	if !role.Selectable() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	existing, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		// Admin approval resets only when the role changes into Admin; an
		// update that keeps the role preserves the stored status.
		status := existing.AdminStatus
		if role == domain.RoleAdmin && existing.Role != domain.RoleAdmin {
			status = domain.AdminStatusPending
		}
		if role != domain.RoleAdmin {
			status = domain.AdminStatusNone
		}
		existing.FullName = fullName
		existing.Phone = phone
		existing.Role = role
		existing.AdminStatus = status
		if err := s.profiles.Update(ctx, existing); err != nil {
			return nil, apperrors.MapError(err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		status := domain.AdminStatusNone
		if role == domain.RoleAdmin {
			status = domain.AdminStatusPending
		}
		existing = &domain.UserProfile{
			UserID:      userID,
			FullName:    fullName,
			Phone:       phone,
			Role:        role,
			AdminStatus: status,
		}
		if err := s.profiles.Create(ctx, existing); err != nil {
			return nil, apperrors.MapError(err)
		}
	default:
		return nil, apperrors.MapError(err)
	}

	if role == domain.RoleTechnician {
		if err := s.ensureTechnician(ctx, userID, fullName, phone); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

func (s *ProfileService) ensureTechnician(ctx context.Context, userID, fullName, phone string) error {
	_, err := s.technicians.GetByUserID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	tech := &domain.Technician{
		UserID:    userID,
		Name:      fullName,
		Phone:     phone,
		Specialty: domain.DefaultSpecialty,
		Available: true,
	}
	return apperrors.MapError(s.technicians.Create(ctx, tech))
}

// Get returns the caller's own profile, or nil when none exists yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ListPendingAdmins returns admin profiles awaiting approval. SuperAdmin only.
func (s *ProfileService) ListPendingAdmins(ctx context.Context, callerUserID string) ([]domain.UserProfile, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	pending := domain.AdminStatusPending
	admins, err := s.profiles.ListAdmins(ctx, &pending)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

// ListAdmins returns all admin profiles regardless of status. SuperAdmin only.
func (s *ProfileService) ListAdmins(ctx context.Context, callerUserID string) ([]domain.UserProfile, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	admins, err := s.profiles.ListAdmins(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

// ApproveAdmin grants an admin profile access. SuperAdmin only.
func (s *ProfileService) ApproveAdmin(ctx context.Context, callerUserID, adminProfileID string) error {
	return s.setAdminStatus(ctx, callerUserID, adminProfileID, domain.AdminStatusApproved)
}

// RejectAdmin declines a pending admin request. SuperAdmin only.
func (s *ProfileService) RejectAdmin(ctx context.Context, callerUserID, adminProfileID string) error {
	return s.setAdminStatus(ctx, callerUserID, adminProfileID, domain.AdminStatusRejected)
}

// RevokeAdmin withdraws an approved admin's access. There is no distinct
// revoked state; the profile simply returns to rejected.
func (s *ProfileService) RevokeAdmin(ctx context.Context, callerUserID, adminProfileID string) error {
	return s.setAdminStatus(ctx, callerUserID, adminProfileID, domain.AdminStatusRejected)
}

func (s *ProfileService) setAdminStatus(ctx context.Context, callerUserID, adminProfileID string, status domain.AdminStatus) error {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleSuperAdmin); err != nil {
		return err
	}
	if err := s.profiles.UpdateAdminStatus(ctx, adminProfileID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("admin", map[string]any{"admin_id": adminProfileID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Stats builds the superadmin dashboard summary. SuperAdmin only.
func (s *ProfileService) Stats(ctx context.Context, callerUserID string) (*SuperAdminStats, error) {
	if _, err := requireRole(ctx, s.profiles, callerUserID, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}

	roleCounts, err := s.profiles.CountsByRole(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	adminCounts, err := s.profiles.CountAdminsByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	statusCounts, err := s.issues.CountsByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &SuperAdminStats{
		TotalCitizens:    roleCounts[domain.RoleCitizen],
		TotalAdmins:      roleCounts[domain.RoleAdmin],
		TotalTechnicians: roleCounts[domain.RoleTechnician],
		PendingAdmins:    adminCounts[domain.AdminStatusPending],
		ApprovedAdmins:   adminCounts[domain.AdminStatusApproved],
		ResolvedIssues:   statusCounts[domain.IssueStatusFixed],
	}
	for _, count := range roleCounts {
		stats.TotalUsers += count
	}
	for _, count := range statusCounts {
		stats.TotalIssues += count
	}
	return stats, nil
}
