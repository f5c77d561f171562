package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/ManuelReschke/PayFox/internal/pkg/database"
	"github.com/ManuelReschke/PayFox/internal/pkg/middleware"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "payfox", "status": "ok"})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		checks := fiber.Map{"database": "ok", "cache": "ok"}

		if db := database.GetDB(); db == nil {
			checks["database"] = "unavailable"
			status = fiber.StatusServiceUnavailable
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			checks["database"] = "unreachable"
			status = fiber.StatusServiceUnavailable
		}

		if client := cache.GetClient(); client == nil {
			checks["cache"] = "unavailable"
			status = fiber.StatusServiceUnavailable
		} else if err := client.Ping(c.Context()).Err(); err != nil {
			checks["cache"] = "unreachable"
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(checks)
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
