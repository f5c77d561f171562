package reconcile

import (
	"errors"
	"testing"
)

func TestPlanDetailsFor(t *testing.T) {
	tests := []struct {
		planType     string
		billingCycle string
		wantName     string
		wantAmount   float64
		wantPeriod   string
	}{
		{planType: "basic", billingCycle: "monthly", wantName: "payfox_basic_monthly", wantAmount: 199, wantPeriod: "monthly"},
		{planType: "basic", billingCycle: "yearly", wantName: "payfox_basic_yearly", wantAmount: 1999, wantPeriod: "yearly"},
		{planType: "pro", billingCycle: "monthly", wantName: "payfox_pro_monthly", wantAmount: 499, wantPeriod: "monthly"},
		{planType: "PRO", billingCycle: " Yearly ", wantName: "payfox_pro_yearly", wantAmount: 4999, wantPeriod: "yearly"},
		{planType: "enterprise", billingCycle: "yearly", wantName: "payfox_enterprise_yearly", wantAmount: 9999, wantPeriod: "yearly"},
	}

	for _, tt := range tests {
		got, err := PlanDetailsFor(tt.planType, tt.billingCycle)
		if err != nil {
			t.Fatalf("PlanDetailsFor(%q, %q) returned error: %v", tt.planType, tt.billingCycle, err)
		}
		if got.Name != tt.wantName || got.Amount != tt.wantAmount || got.Period != tt.wantPeriod {
			t.Fatalf("PlanDetailsFor(%q, %q) = %+v", tt.planType, tt.billingCycle, got)
		}
		if got.Currency != "INR" || got.Interval != 1 {
			t.Fatalf("unexpected currency/interval: %+v", got)
		}
	}
}

func TestPlanDetailsFor_Unknown(t *testing.T) {
	if _, err := PlanDetailsFor("platinum", "monthly"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for unknown plan type, got %v", err)
	}
	if _, err := PlanDetailsFor("basic", "weekly"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for unknown billing cycle, got %v", err)
	}
}

func TestPlanDetailsKey(t *testing.T) {
	details, err := PlanDetailsFor("basic", "monthly")
	if err != nil {
		t.Fatalf("PlanDetailsFor: %v", err)
	}
	if got, want := details.Key(), "payfox_basic_monthly|19900|monthly|1"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}
}
