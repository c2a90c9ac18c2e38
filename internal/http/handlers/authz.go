package handlers

import (
	applog "shelfpos/internal/log"
	"shelfpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Identify resolves the sid cookie to an operator. Anonymous requests pass
// through with an empty owner.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := ""
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				owner = u.Email
			}
		}
		c.Locals("owner", owner)
		return c.Next()
	}
}

// RequireOwner rejects writes from anonymous sessions.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ownerOf(c) == "" {
			applog.Security(c, "access.denied", map[string]any{"sid": c.Cookies("sid")})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		return c.Next()
	}
}

// RequireUser is the page variant: anonymous visitors are sent to the login form.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ownerOf(c) == "" {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}
