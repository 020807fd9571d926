package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/http/handlers"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sessions       *handlers.SessionHandler
	Complaints     *handlers.ComplaintsHandler
	Resolutions    *handlers.ResolutionsHandler
	Assignments    *handlers.AssignmentsHandler
	Notifications  *handlers.NotificationsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Sessions.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	api.Get("/me", cfg.Sessions.Me)
	api.Get("/categories", cfg.Catalog.ListCategories)
	api.Get("/courses", cfg.Catalog.ListCourses)

	api.Post("/complaints", auth.RequireRole(domain.RoleStudent), cfg.Complaints.CreateComplaint)
	// ?scope=community serves the shared feed.
	api.Get("/complaints", cfg.Complaints.ListComplaints)
	api.Get("/complaints/:id", cfg.Complaints.GetComplaint)
	api.Patch("/complaints/:id/status", auth.RequireStaff(), cfg.Complaints.ChangeStatus)
	api.Get("/complaints/:id/resolutions", cfg.Complaints.ListResolutions)
	api.Post("/complaints/:id/resolutions", auth.RequireStaff(), cfg.Complaints.CreateResolution)

	api.Patch("/resolutions/:id", auth.RequireStaff(), cfg.Resolutions.UpdateResolution)
	api.Post("/resolutions/:id/review", auth.RequireStaff(), cfg.Resolutions.ReviewResolution)

	api.Get("/assignments", auth.RequireStaff(), cfg.Assignments.ListMine)
	api.Post("/assignments/:id/revoke", auth.RequireRole(domain.RoleComplaintCoordinator), cfg.Assignments.Revoke)

	api.Get("/notifications", cfg.Notifications.List)
	api.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
}
