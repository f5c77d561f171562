package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/metrics/counter"
)

// HandleGetOperationMetrics returns the per-operation counters accumulated in
// Redis since the last reset.
func HandleGetOperationMetrics(c *fiber.Ctx) error {
	if ok, resp := requireAdmin(c); !ok {
		return resp
	}

	ops, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load operation counters"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"operations": ops,
	})
}

// HandleResetOperationMetrics drops all operation counters.
func HandleResetOperationMetrics(c *fiber.Ctx) error {
	if ok, resp := requireAdmin(c); !ok {
		return resp
	}

	if err := counter.Reset(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to reset operation counters"})
	}

	return c.JSON(fiber.Map{"success": true})
}
