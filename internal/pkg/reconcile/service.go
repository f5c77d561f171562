package reconcile

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
	"github.com/ManuelReschke/PayFox/internal/pkg/mirror"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MinExtendDays and MaxExtendDays bound manual extensions.
	MinExtendDays = 1
	MaxExtendDays = 365
)

// MirrorProjector is the engine's view of the mirror store: write status,
// enumerate for repair. The mirror is never read as a decision input for
// cancel, extend or verify.
type MirrorProjector interface {
	UpsertStatus(ctx context.Context, gatewaySubscriptionID, status string) error
	List(ctx context.Context) ([]mirror.SubscriptionRecord, error)
}

// AuditSink receives fire-and-forget audit entries. Implementations must
// never block the caller on failure.
type AuditSink interface {
	LogAction(action, entityType, entityID, actorID, details string)
}

// Notifier sends best-effort user notifications.
type Notifier interface {
	Notify(email, event string)
}

// SyncReport aggregates the outcome of a bulk mirror-to-ledger sync.
type SyncReport struct {
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

// VerifyPaymentInput carries a payment callback through verification.
type VerifyPaymentInput struct {
	UserID       uint
	OrderID      string
	PaymentID    string
	Signature    string
	Amount       float64
	Currency     string
	PlanType     string
	BillingCycle string
}

// Service orchestrates cancel, extend, sync and payment operations across
// the gateway, the ledger and the mirror. Step order inside an operation is
// a correctness requirement: gateway first, then ledger commit, then mirror —
// the ledger commit is the durability boundary.
type Service struct {
	repo     Repository
	gw       gateway.API
	mirror   MirrorProjector
	resolver *PlanResolver
	audit    AuditSink
	notifier Notifier
	secret   string

	now func() time.Time
}

// NewService creates a reconcile service from injected collaborators.
func NewService(repo Repository, gw gateway.API, projector MirrorProjector, keySecret string) *Service {
	return &Service{
		repo:     repo,
		gw:       gw,
		mirror:   projector,
		resolver: NewPlanResolver(NewMemoryPlanCache(), gw),
		secret:   keySecret,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a reconcile service over a GORM handle.
func NewServiceFromDB(db *gorm.DB, gw gateway.API, projector MirrorProjector, keySecret string) *Service {
	return NewService(NewRepository(db), gw, projector, keySecret)
}

// SetAuditSink attaches a fire-and-forget audit sink.
func (s *Service) SetAuditSink(sink AuditSink) { s.audit = sink }

// SetNotifier attaches a best-effort notifier.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Cancel transitions a user's active subscription to cancelled, keeping
// access until the end of the already-paid period.
//
// A gateway cancel failure does not abort the local transition: the ledger
// decides access, and the failed remote cancel becomes reconciliation debt
// picked up by a later sync. The operation succeeds once the ledger commits;
// mirror propagation is best effort.
func (s *Service) Cancel(ctx context.Context, userID uint) (time.Time, error) {
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		return time.Time{}, err
	}
	if !sub.IsActive() {
		return time.Time{}, ErrNotActive
	}

	if sub.GatewaySubscriptionID != nil && s.gw != nil && s.gw.Configured() {
		if _, err := s.gw.CancelSubscription(ctx, *sub.GatewaySubscriptionID, true); err != nil {
			fiberlog.Errorf("cancel: gateway cancel failed for user %d subscription %s: %v", userID, *sub.GatewaySubscriptionID, err)
		}
	}

	endsAt := s.now()
	if sub.NextBillingDate != nil {
		endsAt = *sub.NextBillingDate
	}

	ok, err := s.repo.CancelSubscription(userID, endsAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("cancel subscription for user %d: %w", userID, err)
	}
	if !ok {
		// Lost the race against another transition.
		return time.Time{}, ErrNotActive
	}

	s.propagateMirror(ctx, sub.GatewaySubscriptionID, mirror.StatusCancelled)
	s.logAction("subscription.cancel", userID, fmt.Sprintf(`{"ends_at":%q}`, endsAt.UTC().Format(time.RFC3339)))
	s.notifyUser(userID, "subscription_cancelled")

	return endsAt, nil
}

// Extend grants additional paid days, reactivating the subscription. The
// base date is the later of now and any existing future end so remaining
// paid time is never lost.
func (s *Service) Extend(ctx context.Context, userID uint, days int) (time.Time, error) {
	if days < MinExtendDays || days > MaxExtendDays {
		return time.Time{}, fmt.Errorf("%w: days must be between %d and %d", ErrInvalidRange, MinExtendDays, MaxExtendDays)
	}

	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if err != nil {
		return time.Time{}, err
	}

	now := s.now()
	base := now
	if end := sub.CurrentEndDate(); end != nil && end.After(now) {
		base = *end
	}
	newEnd := base.AddDate(0, 0, days)

	ok, err := s.repo.ExtendSubscription(userID, newEnd)
	if err != nil {
		return time.Time{}, fmt.Errorf("extend subscription for user %d: %w", userID, err)
	}
	if !ok {
		return time.Time{}, ErrNotFound
	}

	s.propagateMirror(ctx, sub.GatewaySubscriptionID, mirror.StatusActive)
	s.logAction("subscription.extend", userID, fmt.Sprintf(`{"days":%d,"new_end":%q}`, days, newEnd.UTC().Format(time.RFC3339)))
	s.notifyUser(userID, "subscription_extended")

	return newEnd, nil
}

// BulkSync replays every mirror record into the ledger. It is an idempotent
// repair loop: a single record's failure is collected and the batch
// continues.
func (s *Service) BulkSync(ctx context.Context) SyncReport {
	var report SyncReport

	records, err := s.mirror.List(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list mirror records: %v", err))
		return report
	}

	for _, rec := range records {
		if err := s.syncRecord(rec); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("subscription %s: %v", rec.GatewaySubscriptionID, err))
			continue
		}
		report.Synced++
	}

	s.logAction("subscription.bulk_sync", 0, fmt.Sprintf(`{"synced":%d,"failed":%d}`, report.Synced, report.Failed))
	return report
}

func (s *Service) syncRecord(rec mirror.SubscriptionRecord) error {
	if strings.TrimSpace(rec.GatewaySubscriptionID) == "" {
		return fmt.Errorf("missing gateway subscription id")
	}
	if strings.TrimSpace(rec.Email) == "" {
		return fmt.Errorf("missing email")
	}

	user, err := s.repo.FindUserByEmail(rec.Email)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", rec.Email, err)
	}

	gatewayID := rec.GatewaySubscriptionID
	sub := &models.Subscription{
		UserID:                user.ID,
		GatewaySubscriptionID: &gatewayID,
		Status:                LedgerStatusForMirror(rec.Status),
		PlanType:              rec.PlanType,
		BillingCycle:          rec.BillingCycle,
	}
	if sub.PlanType == "" {
		sub.PlanType = models.PlanTypeBasic
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = models.BillingCycleMonthly
	}
	// Records without a period end still need dates the ledger can act on:
	// active rows get a next billing date one cycle out, terminal rows end now.
	end := s.now()
	if rec.CurrentEnd > 0 {
		end = time.Unix(rec.CurrentEnd, 0)
	}
	switch sub.Status {
	case models.SubscriptionStatusActive:
		if rec.CurrentEnd <= 0 {
			end = s.now().AddDate(0, 1, 0)
			if sub.BillingCycle == models.BillingCycleYearly {
				end = s.now().AddDate(1, 0, 0)
			}
		}
		sub.NextBillingDate = &end
	case models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired:
		sub.SubscriptionEndsAt = &end
	}

	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("upsert ledger row: %w", err)
	}
	return nil
}

// LedgerStatusForMirror maps the gateway-facing mirror vocabulary onto
// ledger states. Pre-activation states do not grant access.
func LedgerStatusForMirror(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case mirror.StatusActive, mirror.StatusAuthenticated:
		return models.SubscriptionStatusActive
	case mirror.StatusCancelled:
		return models.SubscriptionStatusCancelled
	case mirror.StatusExpired, mirror.StatusHalted:
		return models.SubscriptionStatusExpired
	default:
		return models.SubscriptionStatusNone
	}
}

// CreateOrder creates a payment order at the gateway. Amount arrives in
// major units and is converted to paise here; no other component deals in
// minor units.
func (s *Service) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*gateway.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidRange)
	}
	if s.gw == nil || !s.gw.Configured() {
		return nil, gateway.ErrNotConfigured
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	if strings.TrimSpace(receipt) == "" {
		receipt = "rcpt_" + uuid.NewString()
	}

	paise := int64(math.Round(amount * 100))
	order, err := s.gw.CreateOrder(ctx, paise, currency, receipt, notes)
	if err != nil {
		return nil, err
	}

	s.logAction("payment.order_created", 0, fmt.Sprintf(`{"order_id":%q,"amount":%d}`, order.ID, order.Amount))
	return order, nil
}

// VerifyPayment is the single authorization point for treating a payment as
// genuine. On success the transaction is recorded and, when plan details are
// supplied, the ledger row is activated (a subscription is created implicitly
// on first successful payment).
func (s *Service) VerifyPayment(ctx context.Context, in VerifyPaymentInput) error {
	if !VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature, s.secret) {
		return ErrSignatureMismatch
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "INR"
	}
	txn := &models.PaymentTransaction{
		UserID:    in.UserID,
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Amount:    in.Amount,
		Currency:  currency,
		Status:    models.PaymentStatusVerified,
	}
	if err := s.repo.CreatePaymentTransaction(txn); err != nil {
		return fmt.Errorf("record payment %s: %w", in.PaymentID, err)
	}

	if in.PlanType != "" {
		if err := s.activateFromPayment(in); err != nil {
			return err
		}
	}

	s.logAction("payment.verified", in.UserID, fmt.Sprintf(`{"order_id":%q,"payment_id":%q}`, in.OrderID, in.PaymentID))
	s.notifyUser(in.UserID, "payment_verified")
	return nil
}

func (s *Service) activateFromPayment(in VerifyPaymentInput) error {
	now := s.now()
	next := now.AddDate(0, 1, 0)
	if in.BillingCycle == models.BillingCycleYearly {
		next = now.AddDate(1, 0, 0)
	}

	sub := &models.Subscription{
		UserID:                in.UserID,
		Status:                models.SubscriptionStatusActive,
		PlanType:              in.PlanType,
		BillingCycle:          in.BillingCycle,
		SubscriptionStartedAt: &now,
		NextBillingDate:       &next,
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = models.BillingCycleMonthly
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("activate subscription for user %d: %w", in.UserID, err)
	}
	return nil
}

// CancelGatewaySubscription cancels a subscription directly at the gateway.
// Unlike Cancel, the gateway call is the point of this operation and its
// failure is surfaced; the local ledger and mirror updates that follow are
// best effort.
func (s *Service) CancelGatewaySubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*gateway.Subscription, error) {
	if s.gw == nil || !s.gw.Configured() {
		return nil, gateway.ErrNotConfigured
	}

	sub, err := s.gw.CancelSubscription(ctx, subscriptionID, cancelAtCycleEnd)
	if err != nil {
		return nil, err
	}

	cancelledAt := s.now()
	if sub.CurrentEnd > 0 && cancelAtCycleEnd {
		cancelledAt = time.Unix(sub.CurrentEnd, 0)
	}
	if _, err := s.repo.MarkCancelledByGatewayID(subscriptionID, cancelledAt); err != nil {
		fiberlog.Errorf("gateway-cancel: ledger update failed for subscription %s: %v", subscriptionID, err)
	}
	s.propagateMirror(ctx, &subscriptionID, mirror.StatusCancelled)
	s.logAction("subscription.gateway_cancel", 0, fmt.Sprintf(`{"subscription_id":%q}`, subscriptionID))

	return sub, nil
}

// GetSubscription returns the ledger state for a user.
func (s *Service) GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	return s.repo.GetSubscriptionByUserID(userID)
}

// PaymentHistory returns the most recent verified transactions for a user.
func (s *Service) PaymentHistory(ctx context.Context, userID uint, limit int) ([]models.PaymentTransaction, error) {
	_ = ctx
	return s.repo.ListPaymentTransactionsByUser(userID, limit)
}

// ResolvePlan maps a (tier, billing cycle) pair to a gateway plan id,
// creating and caching the mapping idempotently.
func (s *Service) ResolvePlan(ctx context.Context, planType, billingCycle string) (string, error) {
	details, err := PlanDetailsFor(planType, billingCycle)
	if err != nil {
		return "", err
	}
	return s.resolver.Resolve(ctx, details)
}

// GatewayKeyID exposes the public gateway key for checkout embeds.
func (s *Service) GatewayKeyID() string {
	if s.gw == nil {
		return ""
	}
	return s.gw.KeyID()
}

// propagateMirror pushes a status to the mirror store. Mirror failures are
// logged with enough context for a manual replay and never surfaced: the
// ledger commit is the durability boundary, the mirror is a projection.
func (s *Service) propagateMirror(ctx context.Context, gatewaySubscriptionID *string, status string) {
	if gatewaySubscriptionID == nil || *gatewaySubscriptionID == "" || s.mirror == nil {
		return
	}
	if err := s.mirror.UpsertStatus(ctx, *gatewaySubscriptionID, status); err != nil {
		fiberlog.Errorf("mirror propagation failed: subscription %s status %s: %v", *gatewaySubscriptionID, status, err)
	}
}

func (s *Service) logAction(action string, userID uint, details string) {
	if s.audit == nil {
		return
	}
	actor := ""
	if userID > 0 {
		actor = fmt.Sprintf("%d", userID)
	}
	s.audit.LogAction(action, "subscription", actor, actor, details)
}

func (s *Service) notifyUser(userID uint, event string) {
	if s.notifier == nil || userID == 0 {
		return
	}
	user, err := s.repo.FindUserByID(userID)
	if err != nil {
		fiberlog.Warnf("notify: user %d lookup failed: %v", userID, err)
		return
	}
	s.notifier.Notify(user.Email, event)
}
