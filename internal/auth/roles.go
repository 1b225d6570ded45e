package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// RequireAuthenticated ensures a principal was loaded by the auth middleware.
// Role checks happen in the service layer, per operation, so that an operation
// like getAllIssues can additionally gate on admin approval.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}
