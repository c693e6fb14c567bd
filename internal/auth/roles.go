package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles. It runs
// before any handler so a mismatch never reveals whether a resource exists.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole()
}
