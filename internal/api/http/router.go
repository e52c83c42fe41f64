package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-relay/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Admin  *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	admin := app.Group("/admin")
	admin.Get("/sessions", cfg.Admin.ListSessions)
	admin.Delete("/sessions/:userID", cfg.Admin.DeleteSession)
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/questions", cfg.Admin.ListQuestions)
	admin.Delete("/questions/:id", cfg.Admin.DeleteQuestion)
	admin.Post("/bans/:userID", cfg.Admin.BanUser)
	admin.Delete("/bans/:userID", cfg.Admin.UnbanUser)
}
