package models

import "time"

const (
	SubscriptionStatusNone      = "none"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

const (
	PlanTypeBasic      = "basic"
	PlanTypePro        = "pro"
	PlanTypeEnterprise = "enterprise"
)

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Subscription is the authoritative ledger row for a user's subscription.
// It is mutated only by the reconcile service and never hard-deleted; expired
// and cancelled rows are kept for history.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	GatewaySubscriptionID *string    `gorm:"type:varchar(191);index" json:"gateway_subscription_id,omitempty"`
	Status                string     `gorm:"type:varchar(32);not null;default:'none';index" json:"status"`
	PlanType              string     `gorm:"type:varchar(50);not null;default:'basic'" json:"plan_type"`
	BillingCycle          string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	SubscriptionStartedAt *time.Time `gorm:"type:timestamp;default:null" json:"subscription_started_at,omitempty"`
	NextBillingDate       *time.Time `gorm:"type:timestamp;default:null" json:"next_billing_date,omitempty"`
	SubscriptionEndsAt    *time.Time `gorm:"type:timestamp;default:null" json:"subscription_ends_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// CurrentEndDate returns the best known end of the paid period: the explicit
// end date if set, otherwise the next billing date.
func (s *Subscription) CurrentEndDate() *time.Time {
	if s.SubscriptionEndsAt != nil {
		return s.SubscriptionEndsAt
	}
	return s.NextBillingDate
}

// IsValidSubscriptionStatus reports whether the given status is part of the
// ledger vocabulary.
func IsValidSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionStatusNone, SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	default:
		return false
	}
}
