package reconcile

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
)

// PlanDetails identifies a billable plan by its attributes. Amount is in
// major units; the resolver converts to paise at the gateway boundary.
type PlanDetails struct {
	Name     string
	Amount   float64
	Currency string
	Period   string // monthly|yearly as gateway periods
	Interval int
}

// Key returns the deterministic cache key for these plan attributes.
func (p PlanDetails) Key() string {
	return fmt.Sprintf("%s|%d|%s|%d", strings.ToLower(strings.TrimSpace(p.Name)), p.amountPaise(), strings.ToLower(p.Period), p.interval())
}

func (p PlanDetails) amountPaise() int64 {
	// Rounded, not truncated: 582.29 in float64 is 582.28999..., truncation
	// would lose a paisa.
	return int64(math.Round(p.Amount * 100))
}

func (p PlanDetails) interval() int {
	if p.Interval <= 0 {
		return 1
	}
	return p.Interval
}

func (p PlanDetails) item() gateway.PlanItem {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = "INR"
	}
	return gateway.PlanItem{
		Name:     strings.TrimSpace(p.Name),
		Amount:   p.amountPaise(),
		Currency: currency,
	}
}

// PlanResolver maps plan attributes to gateway plan ids, creating missing
// plans idempotently.
type PlanResolver struct {
	cache PlanCache
	gw    gateway.API
}

// NewPlanResolver creates a resolver over the given cache and gateway client.
func NewPlanResolver(cache PlanCache, gw gateway.API) *PlanResolver {
	if cache == nil {
		cache = NewMemoryPlanCache()
	}
	return &PlanResolver{cache: cache, gw: gw}
}

// Resolve returns the gateway plan id for the given attributes.
//
// Cache hits return immediately without a network call. On a miss the plan is
// created at the gateway; if the gateway reports it already exists, existing
// plans are listed and matched by exact attributes. If no match is found
// (partial creation, or a race with another process) a plan is created under
// a timestamp-suffixed name so the caller still makes forward progress.
func (r *PlanResolver) Resolve(ctx context.Context, details PlanDetails) (string, error) {
	key := details.Key()
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	item := details.item()
	plan, err := r.gw.CreatePlan(ctx, details.Period, details.interval(), item)
	if err == nil {
		r.cache.Put(key, plan.ID)
		return plan.ID, nil
	}
	if !gateway.IsAlreadyExists(err) {
		return "", fmt.Errorf("create plan %q: %w", details.Name, err)
	}

	plans, listErr := r.gw.ListPlans(ctx)
	if listErr != nil {
		return "", fmt.Errorf("list plans after create conflict: %w", listErr)
	}
	for _, p := range plans {
		if p.Period == details.Period &&
			p.Interval == details.interval() &&
			p.Item.Name == item.Name &&
			p.Item.Amount == item.Amount &&
			p.Item.Currency == item.Currency {
			r.cache.Put(key, p.ID)
			return p.ID, nil
		}
	}

	// No exact match despite the conflict. Create under a disambiguated name
	// rather than failing the caller.
	item.Name = fmt.Sprintf("%s_%d", item.Name, time.Now().Unix())
	plan, err = r.gw.CreatePlan(ctx, details.Period, details.interval(), item)
	if err != nil {
		return "", fmt.Errorf("create fallback plan %q: %w", item.Name, err)
	}
	r.cache.Put(key, plan.ID)
	return plan.ID, nil
}

// ClearCache drops all cached plan ids, used by tests.
func (r *PlanResolver) ClearCache() {
	r.cache.Clear()
}
