package controllers

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PayFox/internal/pkg/audit"
	"github.com/ManuelReschke/PayFox/internal/pkg/database"
	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
	"github.com/ManuelReschke/PayFox/internal/pkg/mirror"
	"github.com/ManuelReschke/PayFox/internal/pkg/reconcile"
)

var (
	reconcileOnce sync.Once
	reconcileSvc  *reconcile.Service
)

// getReconcileService returns the shared reconcile service. It is a
// singleton so the plan cache survives across requests.
func getReconcileService() *reconcile.Service {
	reconcileOnce.Do(func() {
		gw := gateway.NewClientFromEnv()
		projector := mirror.NewProjector(mirror.NewRedisStore())
		svc := reconcile.NewServiceFromDB(database.GetDB(), gw, projector, gateway.KeySecretFromEnv())
		svc.SetAuditSink(audit.NewLogger(database.GetDB()))
		svc.SetNotifier(mail.NewNotifier())
		reconcileSvc = svc
	})
	return reconcileSvc
}

// SetReconcileService overrides the shared service, used by tests.
func SetReconcileService(svc *reconcile.Service) {
	reconcileOnce.Do(func() {})
	reconcileSvc = svc
}

func parseUserIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
