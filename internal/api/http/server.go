package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/http/handlers"
	"github.com/spec-kit/complaint-desk/internal/app"
	"github.com/spec-kit/complaint-desk/internal/auth"
)

// NewServer builds the fiber app with middlewares and routes for c.
func NewServer(c *app.Container) *fiber.App {
	cfg := c.Config
	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(server, c.Logger, c.Metrics, cfg.App.RequestTimeout())

	RegisterRoutes(server, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, c.Postgres, c.Redis, c.Metrics),
		Sessions:       handlers.NewSessionHandler(c.Sessions, cfg.Auth.UpstreamSecret),
		Complaints:     handlers.NewComplaintsHandler(c.Complaints, c.Resolutions),
		Resolutions:    handlers.NewResolutionsHandler(c.Resolutions),
		Assignments:    handlers.NewAssignmentsHandler(c.Complaints),
		Notifications:  handlers.NewNotificationsHandler(c.Notifications),
		Catalog:        handlers.NewCatalogHandler(c.Catalog),
		AuthMiddleware: auth.NewAuthMiddleware(c.Tokens, c.Store.Repos().Users),
	})
	return server
}
