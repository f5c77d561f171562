package controllers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
	"github.com/ManuelReschke/PayFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PayFox/internal/pkg/reconcile"
	"github.com/ManuelReschke/PayFox/internal/pkg/usercontext"
)

// HandleCreateOrder creates a payment order at the gateway. Amounts are in
// major units; the reconcile service converts to paise.
func HandleCreateOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req struct {
		Amount   float64           `json:"amount" validate:"required,gt=0"`
		Currency string            `json:"currency"`
		Receipt  string            `json:"receipt"`
		Notes    map[string]string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request format"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_range", "message": "Amount must be greater than zero"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	svc := getReconcileService()
	order, err := svc.CreateOrder(ctx, req.Amount, req.Currency, req.Receipt, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidRange):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_range", "message": "Amount must be greater than zero"})
		case errors.Is(err, gateway.ErrNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "gateway_not_configured", "message": "Payment gateway is not configured"})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Failed to create order"})
		}
	}

	_ = counter.AddOperation(counter.OpOrderCreated)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id":       order.ID,
		"amount":         float64(order.Amount) / 100,
		"currency":       order.Currency,
		"gateway_key_id": svc.GatewayKeyID(),
	})
}

// HandleVerifyPayment validates a payment callback signature. This is the
// only code path that may treat a payment as genuine.
func HandleVerifyPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req struct {
		OrderID      string  `json:"order_id" validate:"required"`
		PaymentID    string  `json:"payment_id" validate:"required"`
		Signature    string  `json:"signature" validate:"required"`
		Amount       float64 `json:"amount"`
		Currency     string  `json:"currency"`
		PlanType     string  `json:"plan_type"`
		BillingCycle string  `json:"billing_cycle"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request format"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "order_id, payment_id and signature are required"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	err := getReconcileService().VerifyPayment(ctx, reconcile.VerifyPaymentInput{
		UserID:       userCtx.UserID,
		OrderID:      req.OrderID,
		PaymentID:    req.PaymentID,
		Signature:    req.Signature,
		Amount:       req.Amount,
		Currency:     req.Currency,
		PlanType:     req.PlanType,
		BillingCycle: req.BillingCycle,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrSignatureMismatch) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "signature_mismatch", "message": "Payment verification failed"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record payment"})
	}

	_ = counter.AddOperation(counter.OpPaymentVerify)

	return c.JSON(fiber.Map{
		"success":    true,
		"payment_id": req.PaymentID,
		"order_id":   req.OrderID,
	})
}

// HandleGetPaymentHistory returns recent verified transactions for the
// authenticated user.
func HandleGetPaymentHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	limit := c.QueryInt("limit", 20)
	txns, err := getReconcileService().PaymentHistory(c.Context(), userCtx.UserID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payment history"})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"payments": txns,
		"count":    len(txns),
	})
}

// HandleResolvePlan maps a (plan type, billing cycle) pair to a gateway plan
// id, creating the plan idempotently when missing.
func HandleResolvePlan(c *fiber.Ctx) error {
	if ok, resp := requireAdmin(c); !ok {
		return resp
	}

	planType := c.Query("plan_type")
	billingCycle := c.Query("billing_cycle")

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	planID, err := getReconcileService().ResolvePlan(ctx, planType, billingCycle)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidRange):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown plan type or billing cycle"})
		case errors.Is(err, gateway.ErrNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "gateway_not_configured", "message": "Payment gateway is not configured"})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Failed to resolve plan"})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"plan_id": planID,
	})
}
