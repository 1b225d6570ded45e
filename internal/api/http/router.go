package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civifix-service/internal/api/http/handlers"
	"github.com/spec-kit/civifix-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Profile        *handlers.ProfileHandler
	Issues         *handlers.IssuesHandler
	Admins         *handlers.AdminsHandler
	Technicians    *handlers.TechniciansHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
	IssueLimiter   fiber.Handler
}

// RegisterRoutes wires HTTP routes. Literal issue paths (mine, assigned, map)
// must be registered before the :id parameter route.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	app.Get("/stats/public", cfg.Stats.Public)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Get("/profile", cfg.Profile.Get)
	protected.Put("/profile", cfg.Profile.Upsert)

	issues := protected.Group("/issues")
	issues.Post("", cfg.IssueLimiter, cfg.Issues.Create)
	issues.Get("/mine", cfg.Issues.ListMine)
	issues.Get("/assigned", cfg.Issues.ListAssigned)
	issues.Get("/map", cfg.Issues.MapView)
	issues.Get("", cfg.Issues.ListAll)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Post("/:id/assign", cfg.Issues.Assign)
	issues.Patch("/:id/status", cfg.Issues.UpdateStatus)
	issues.Patch("/:id/priority", cfg.Issues.UpdatePriority)
	issues.Post("/:id/fix", cfg.Issues.MarkFixed)
	issues.Delete("/:id", cfg.Issues.Delete)
	issues.Post("/:id/comments", cfg.Issues.AddComment)

	admins := protected.Group("/admins")
	admins.Get("/pending", cfg.Admins.ListPending)
	admins.Get("/stats", cfg.Admins.Stats)
	admins.Get("", cfg.Admins.List)
	admins.Post("/:id/approve", cfg.Admins.Approve)
	admins.Post("/:id/reject", cfg.Admins.Reject)
	admins.Post("/:id/revoke", cfg.Admins.Revoke)

	technicians := protected.Group("/technicians")
	technicians.Get("", cfg.Technicians.List)
	technicians.Patch("/me/availability", cfg.Technicians.SetAvailability)
	technicians.Patch("/me/specialty", cfg.Technicians.SetSpecialty)

	protected.Get("/stats/dashboard", cfg.Stats.Dashboard)
}
