package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/gateway"
)

type fakeGateway struct {
	configured bool

	createOrderCalls int
	cancelCalls      int
	createPlanCalls  int
	listPlanCalls    int

	// popped in order by CreatePlan; nil entries mean success
	createPlanErrs []error
	cancelErr      error

	plans      []gateway.Plan
	nextPlanID int

	lastOrderAmount   int64
	lastOrderCurrency string
	lastOrderReceipt  string
}

func (f *fakeGateway) Configured() bool { return f.configured }

func (f *fakeGateway) KeyID() string { return "rzp_test_abc123" }

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*gateway.Order, error) {
	f.createOrderCalls++
	f.lastOrderAmount = amount
	f.lastOrderCurrency = currency
	f.lastOrderReceipt = receipt
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", f.createOrderCalls),
		Entity:   "order",
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*gateway.Subscription, error) {
	f.cancelCalls++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &gateway.Subscription{ID: subscriptionID, Status: "cancelled"}, nil
}

func (f *fakeGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error) {
	return &gateway.Subscription{ID: subscriptionID, Status: "active"}, nil
}

func (f *fakeGateway) CreatePlan(ctx context.Context, period string, interval int, item gateway.PlanItem) (*gateway.Plan, error) {
	f.createPlanCalls++
	if len(f.createPlanErrs) > 0 {
		err := f.createPlanErrs[0]
		f.createPlanErrs = f.createPlanErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextPlanID++
	plan := gateway.Plan{
		ID:       fmt.Sprintf("plan_%d", f.nextPlanID),
		Period:   period,
		Interval: interval,
		Item:     item,
	}
	f.plans = append(f.plans, plan)
	return &plan, nil
}

func (f *fakeGateway) ListPlans(ctx context.Context) ([]gateway.Plan, error) {
	f.listPlanCalls++
	return f.plans, nil
}

func planExistsErr() error {
	return &gateway.Error{
		Op:          "POST /plans",
		StatusCode:  400,
		Code:        gateway.ErrorCodePlanExists,
		Description: "Plan with the same attributes already exists",
	}
}

func TestPlanResolver_CreatesAndCaches(t *testing.T) {
	gw := &fakeGateway{configured: true}
	resolver := NewPlanResolver(NewMemoryPlanCache(), gw)
	details, err := PlanDetailsFor("basic", "monthly")
	require.NoError(t, err)

	id, err := resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", id)
	assert.Equal(t, 1, gw.createPlanCalls)

	// Second resolve hits the cache, no further gateway calls.
	id2, err := resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, gw.createPlanCalls)
	assert.Equal(t, 0, gw.listPlanCalls)
}

func TestPlanResolver_LooksUpExistingPlan(t *testing.T) {
	details, err := PlanDetailsFor("pro", "yearly")
	require.NoError(t, err)

	gw := &fakeGateway{
		configured:     true,
		createPlanErrs: []error{planExistsErr()},
		plans: []gateway.Plan{
			{ID: "plan_other", Period: "monthly", Interval: 1, Item: gateway.PlanItem{Name: "payfox_basic_monthly", Amount: 19900, Currency: "INR"}},
			{ID: "plan_match", Period: "yearly", Interval: 1, Item: gateway.PlanItem{Name: "payfox_pro_yearly", Amount: 499900, Currency: "INR"}},
		},
	}
	resolver := NewPlanResolver(NewMemoryPlanCache(), gw)

	id, err := resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, "plan_match", id)
	assert.Equal(t, 1, gw.listPlanCalls)

	// Match is cached.
	id2, err := resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, "plan_match", id2)
	assert.Equal(t, 1, gw.listPlanCalls)
}

func TestPlanResolver_FallbackName(t *testing.T) {
	details, err := PlanDetailsFor("enterprise", "monthly")
	require.NoError(t, err)

	// Gateway claims the plan exists but the listing has no exact match.
	gw := &fakeGateway{
		configured:     true,
		createPlanErrs: []error{planExistsErr(), nil},
	}
	resolver := NewPlanResolver(NewMemoryPlanCache(), gw)

	id, err := resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", id)
	assert.Equal(t, 2, gw.createPlanCalls)

	created := gw.plans[len(gw.plans)-1]
	assert.Contains(t, created.Item.Name, "payfox_enterprise_monthly_")
}

func TestPlanDetails_PaiseRounding(t *testing.T) {
	// 582.29 * 100 is 58228.999... in float64; the conversion must round.
	details := PlanDetails{Name: "custom", Amount: 582.29, Period: "monthly"}

	assert.Equal(t, int64(58229), details.item().Amount)
	assert.Equal(t, "custom|58229|monthly|1", details.Key())
}

func TestPlanResolver_ClearCache(t *testing.T) {
	gw := &fakeGateway{configured: true}
	resolver := NewPlanResolver(NewMemoryPlanCache(), gw)
	details, err := PlanDetailsFor("basic", "monthly")
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	resolver.ClearCache()

	_, err = resolver.Resolve(context.Background(), details)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.createPlanCalls)
}

func TestPlanResolver_SurfacesOtherErrors(t *testing.T) {
	details, err := PlanDetailsFor("basic", "yearly")
	require.NoError(t, err)

	gw := &fakeGateway{
		configured: true,
		createPlanErrs: []error{&gateway.Error{
			Op:          "POST /plans",
			StatusCode:  401,
			Code:        "BAD_REQUEST_ERROR",
			Description: "Authentication failed",
		}},
	}
	resolver := NewPlanResolver(NewMemoryPlanCache(), gw)

	_, err = resolver.Resolve(context.Background(), details)
	require.Error(t, err)
	assert.Equal(t, 0, gw.listPlanCalls)
}
