package reconcile

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/PayFox/app/models"
)

// Plan pricing in INR major units per billing cycle.
var planPricing = map[string]map[string]float64{
	models.PlanTypeBasic: {
		models.BillingCycleMonthly: 199,
		models.BillingCycleYearly:  1999,
	},
	models.PlanTypePro: {
		models.BillingCycleMonthly: 499,
		models.BillingCycleYearly:  4999,
	},
	models.PlanTypeEnterprise: {
		models.BillingCycleMonthly: 999,
		models.BillingCycleYearly:  9999,
	},
}

// PlanDetailsFor derives the gateway plan attributes for a (tier, cycle)
// pair. The pair forms the deterministic plan key used by the resolver.
func PlanDetailsFor(planType, billingCycle string) (PlanDetails, error) {
	planType = strings.ToLower(strings.TrimSpace(planType))
	billingCycle = strings.ToLower(strings.TrimSpace(billingCycle))

	cycles, ok := planPricing[planType]
	if !ok {
		return PlanDetails{}, fmt.Errorf("%w: unknown plan type %q", ErrInvalidRange, planType)
	}
	amount, ok := cycles[billingCycle]
	if !ok {
		return PlanDetails{}, fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidRange, billingCycle)
	}

	period := "monthly"
	if billingCycle == models.BillingCycleYearly {
		period = "yearly"
	}

	return PlanDetails{
		Name:     fmt.Sprintf("payfox_%s_%s", planType, billingCycle),
		Amount:   amount,
		Currency: "INR",
		Period:   period,
		Interval: 1,
	}, nil
}
