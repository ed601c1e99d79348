package routes

import (
	"path/filepath"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"rtchat/server/internal/handlers"
	"rtchat/server/internal/middleware"
)

// Deps carries the wired handlers the routes need.
type Deps struct {
	Auth      *handlers.AuthHandler
	WS        *handlers.WebSocketHandler
	UploadDir string
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.StrictRateLimiter(), deps.Auth.SignUp)
	auth.Post("/signin", middleware.StrictRateLimiter(), deps.Auth.SignIn)
	auth.Post("/refresh", middleware.StrictRateLimiter(), deps.Auth.Refresh)

	// Serve uploaded avatars (public)
	app.Static("/uploads/avatars", filepath.Join(deps.UploadDir, "avatars"))

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, deps.WS.Upgrade, websocket.New(deps.WS.Handle))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, deps.WS.Stats)
}
