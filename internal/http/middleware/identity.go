package middleware

import (
	"github.com/gofiber/fiber/v2"

	"planvault/internal/model"
)

const (
	// HeaderUserID carries the authenticated user id set by the gateway.
	HeaderUserID         = "X-User-Id"
	HeaderUserName       = "X-User-Name"
	HeaderUserRole       = "X-User-Role"
	HeaderUserDepartment = "X-User-Department"

	// IdentityLocalKey is the key used to store the caller identity in Fiber's
	// context locals.
	IdentityLocalKey = "identity"
)

// Identity resolves the caller from the gateway-injected identity headers.
//
// Behavior:
// - X-User-Id is mandatory; without it the request is rejected with 401.
// - Unknown role values fall back to staff, the least-privileged role.
// - The resolved model.Identity is stored under IdentityLocalKey.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderUserID)
		if id == "" {
			return fiber.ErrUnauthorized
		}

		role := c.Get(HeaderUserRole)
		if role != model.RoleReviewer {
			role = model.RoleStaff
		}

		c.Locals(IdentityLocalKey, model.Identity{
			ID:         id,
			Name:       c.Get(HeaderUserName),
			Role:       role,
			Department: c.Get(HeaderUserDepartment),
		})

		return c.Next()
	}
}

// IdentityFromCtx extracts the caller identity stored by Identity.
func IdentityFromCtx(c *fiber.Ctx) (model.Identity, bool) {
	ident, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return ident, ok
}
