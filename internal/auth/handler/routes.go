package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, authH *AuthHandler, accountH *AccountHandler) {
	app.Get("/health", Health)

	auth := app.Group("/api/v1/auth")
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Post("/refresh", authH.Refresh)
	auth.Get("/verify", authH.RequireAuth, authH.Verify)
	auth.Post("/logout", authH.RequireAuth, authH.Logout)

	// Authenticated account endpoints
	user := app.Group("/api/v1/user", authH.RequireAuth)
	user.Get("/profile", accountH.Profile)
	user.Put("/profile", accountH.UpdateProfile)
	user.Delete("/profile", accountH.Deactivate)
	user.Get("/stats", accountH.Stats)
	user.Get("/login-history", accountH.LoginHistory)
}

func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
