package handlers

import (
	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sessionCookie = "sid"

// LoadUser attaches the session user, if any, to the request.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sessionCookie); sid != "" {
			u, err := auth.CurrentUser(c.UserContext(), sid)
			if err == nil {
				c.Locals("user", u)
				c.Locals("owner", u.OwnerTag())
			}
		}
		return c.Next()
	}
}

// RequireUser rejects requests without a live session.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUser(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := currentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) (domain.User, bool) {
	u, ok := c.Locals("user").(domain.User)
	return u, ok
}
