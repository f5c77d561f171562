package models

import (
	"testing"
	"time"
)

func TestSubscriptionCurrentEndDate(t *testing.T) {
	ends := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	sub := Subscription{SubscriptionEndsAt: &ends, NextBillingDate: &next}
	if got := sub.CurrentEndDate(); got == nil || !got.Equal(ends) {
		t.Fatalf("expected explicit end date to win, got %v", got)
	}

	sub = Subscription{NextBillingDate: &next}
	if got := sub.CurrentEndDate(); got == nil || !got.Equal(next) {
		t.Fatalf("expected next billing date fallback, got %v", got)
	}

	sub = Subscription{}
	if got := sub.CurrentEndDate(); got != nil {
		t.Fatalf("expected nil end date, got %v", got)
	}
}

func TestSubscriptionIsActive(t *testing.T) {
	if !(&Subscription{Status: SubscriptionStatusActive}).IsActive() {
		t.Fatalf("expected active subscription to report active")
	}
	for _, status := range []string{SubscriptionStatusNone, SubscriptionStatusCancelled, SubscriptionStatusExpired} {
		if (&Subscription{Status: status}).IsActive() {
			t.Fatalf("expected status %q to report inactive", status)
		}
	}
}

func TestIsValidSubscriptionStatus(t *testing.T) {
	for _, status := range []string{"none", "active", "cancelled", "expired"} {
		if !IsValidSubscriptionStatus(status) {
			t.Fatalf("expected status %q to be valid", status)
		}
	}
	for _, status := range []string{"", "ACTIVE", "paused", "halted"} {
		if IsValidSubscriptionStatus(status) {
			t.Fatalf("expected status %q to be invalid", status)
		}
	}
}
