package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civifix-service/internal/domain"
	"github.com/spec-kit/civifix-service/internal/repository"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Profile is nil until the
// user has completed profile submission.
type Principal struct {
	User    *domain.User
	Profile *domain.UserProfile
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, profiles repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return apperrors.NewForbidden("account suspended")
	}

	principal := &Principal{User: user}
	profile, err := m.profiles.GetByUserID(c.Context(), user.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	principal.Profile = profile

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
