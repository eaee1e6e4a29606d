package router

import (
	"io/fs"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/mergington-activities/internal/config"
	"github.com/noah-isme/mergington-activities/internal/handler"
	"github.com/noah-isme/mergington-activities/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	RosterStreamHandler *handler.RosterStreamHandler
	StaticAssets        fs.FS
	HealthProbes        []handler.HealthProbe
	// MutationLimiter guards signup and unregister; nil disables limiting.
	MutationLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.StaticAssets != nil {
		handler.RegisterStatic(app, deps.StaticAssets)
	}

	activities := app.Group("/activities")

	// Stream first so /ws is never captured by a future /:name route.
	if deps.RosterStreamHandler != nil {
		deps.RosterStreamHandler.Register(activities)
	}

	if deps.ActivityHandler != nil {
		var mutation []fiber.Handler
		if deps.MutationLimiter != nil {
			mutation = append(mutation, deps.MutationLimiter)
		}
		deps.ActivityHandler.Register(activities, mutation...)
	}
}
