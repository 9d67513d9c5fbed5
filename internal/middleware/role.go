package middleware

import (
	"strings"

	"go-crm-import/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRole lets the request through when the authenticated user holds one
// of roles. It must run after AuthMiddleware.
func RequireRole(skipAuth bool, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if len(claims.Roles) == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: No roles assigned",
			})
		}

		if claims.HasRole(roles...) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied: " + strings.Join(roles, " or ") + " role required",
		})
	}
}
