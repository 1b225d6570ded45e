package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/repository"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// requireRole loads the caller's profile and checks it against the allowed
// roles. A missing profile is an authorization failure, not a not-found:
// users without a completed profile hold no role at all.
func requireRole(ctx context.Context, profiles repository.ProfileRepository, userID string, allowed ...domain.Role) (*domain.UserProfile, error) {
	profile, err := profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("not authorized for this action")
		}
		return nil, apperrors.MapError(err)
	}
	for _, role := range allowed {
		if profile.Role == role {
			return profile, nil
		}
	}
	return nil, apperrors.NewForbidden("not authorized for this action")
}

// requireApprovedAdmin applies the extra approval gate used by the
// admin-wide read views. Admins who are still pending (or were rejected)
// hold the role but not the access.
func requireApprovedAdmin(profile *domain.UserProfile) error {
	if profile.Role == domain.RoleAdmin && profile.AdminStatus != domain.AdminStatusApproved {
		return apperrors.NewForbidden("your admin account is pending approval")
	}
	return nil
}
