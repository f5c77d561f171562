package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
	"github.com/ManuelReschke/PayFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PayFox/internal/pkg/reconcile"
	"github.com/ManuelReschke/PayFox/internal/pkg/usercontext"
)

const requestTimeout = 20 * time.Second

// HandleCancelSubscription cancels the subscription identified by the user id in the path.
// The caller must be that user or an admin. Success means the ledger
// committed; a failed gateway cancel is retried by a later sync.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}
	if ok, resp := requireSelfOrAdmin(c, userID); !ok {
		return resp
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	endsAt, err := getReconcileService().Cancel(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription found"})
		case errors.Is(err, reconcile.ErrNotActive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "not_active", "message": "Subscription is not active"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to cancel subscription"})
		}
	}

	_ = counter.AddOperation(counter.OpCancel)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Subscription cancelled, access ends " + endsAt.UTC().Format(time.RFC3339),
	})
}

// HandleExtendSubscription grants additional days to the subscription of the
// user in the path, reactivating it if needed.
func HandleExtendSubscription(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}
	if ok, resp := requireSelfOrAdmin(c, userID); !ok {
		return resp
	}

	var req struct {
		Days int `json:"days" validate:"required,min=1,max=365"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request format"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_range", "message": "Days must be between 1 and 365"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	newEnd, err := getReconcileService().Extend(ctx, userID, req.Days)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidRange):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_range", "message": "Days must be between 1 and 365"})
		case errors.Is(err, reconcile.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to extend subscription"})
		}
	}

	_ = counter.AddOperation(counter.OpExtend)

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Subscription extended",
		"new_end_date": newEnd.UTC().Format(time.RFC3339),
	})
}

// HandleGetSubscription returns the ledger state for the user in the path.
func HandleGetSubscription(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}
	if ok, resp := requireSelfOrAdmin(c, userID); !ok {
		return resp
	}

	sub, err := getReconcileService().GetSubscription(c.Context(), userID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscription"})
	}

	return c.JSON(fiber.Map{"success": true, "subscription": sub})
}

// HandleSyncSubscriptions replays the mirror store into the ledger. The sync
// is partial-failure tolerant and always answers 200 with per-record counts.
func HandleSyncSubscriptions(c *fiber.Ctx) error {
	if ok, resp := requireAdmin(c); !ok {
		return resp
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
	defer cancel()

	report := getReconcileService().BulkSync(ctx)
	if report.Errors == nil {
		report.Errors = []string{}
	}

	_ = counter.AddOperation(counter.OpSync)

	return c.JSON(fiber.Map{
		"synced": report.Synced,
		"failed": report.Failed,
		"errors": report.Errors,
	})
}

// HandleGatewayCancelSubscription cancels a subscription directly at the
// gateway by its gateway id.
func HandleGatewayCancelSubscription(c *fiber.Ctx) error {
	if ok, resp := requireAdmin(c); !ok {
		return resp
	}

	var req struct {
		SubscriptionID   string `json:"subscription_id" validate:"required"`
		CancelAtCycleEnd bool   `json:"cancel_at_cycle_end"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request format"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "subscription_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	sub, err := getReconcileService().CancelGatewaySubscription(ctx, req.SubscriptionID, req.CancelAtCycleEnd)
	if err != nil {
		if errors.Is(err, gateway.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "gateway_not_configured", "message": "Payment gateway is not configured"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Gateway cancellation failed"})
	}

	cancelledAt := time.Now().UTC()
	if sub.CancelledAt > 0 {
		cancelledAt = time.Unix(sub.CancelledAt, 0).UTC()
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"subscription_id": sub.ID,
		"status":          sub.Status,
		"cancelled_at":    cancelledAt.Format(time.RFC3339),
	})
}

// requireSelfOrAdmin writes the 401/403 response itself and reports whether
// the handler may proceed. Callers must return err immediately when ok is
// false.
func requireSelfOrAdmin(c *fiber.Ctx, userID uint) (ok bool, err error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}
	if userCtx.UserID != userID && !userCtx.IsAdmin {
		return false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not allowed for this user"})
	}
	return true, nil
}

func requireAdmin(c *fiber.Ctx) (ok bool, err error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}
	if !userCtx.IsAdmin {
		return false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Administrator access required"})
	}
	return true, nil
}
