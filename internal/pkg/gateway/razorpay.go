package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/PayFox/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.razorpay.com/v1"

// ErrNotConfigured is returned when gateway credentials are missing. Callers
// use it to degrade to local-only behavior instead of attempting a doomed
// network call.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// ErrorCodePlanExists is the gateway error code signalled when a plan with the
// same attributes already exists.
const ErrorCodePlanExists = "BAD_REQUEST_ERROR"

// Error is a gateway API error with enough context for manual replay.
type Error struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s failed: %s (%d): %s", e.Op, e.Code, e.StatusCode, e.Description)
}

// IsAlreadyExists reports whether the error indicates the resource already
// exists at the gateway.
func IsAlreadyExists(err error) bool {
	var gErr *Error
	if !errors.As(err, &gErr) {
		return false
	}
	return gErr.Code == ErrorCodePlanExists && strings.Contains(strings.ToLower(gErr.Description), "exist")
}

// Order is a gateway payment order. Amounts are in minor units (paise).
type Order struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Subscription is the gateway's view of a recurring subscription.
type Subscription struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	Status      string `json:"status"`
	CurrentEnd  int64  `json:"current_end"`
	ChargeAt    int64  `json:"charge_at"`
	EndedAt     int64  `json:"ended_at"`
	TotalCount  int    `json:"total_count"`
	PaidCount   int    `json:"paid_count"`
	CustomerID  string `json:"customer_id"`
	ShortURL    string `json:"short_url"`
	CreatedAt   int64  `json:"created_at"`
	CancelledAt int64  `json:"cancelled_at"`
}

// PlanItem describes the billable item of a plan. Amount is in paise.
type PlanItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Plan is a gateway billing plan.
type Plan struct {
	ID       string   `json:"id"`
	Period   string   `json:"period"`
	Interval int      `json:"interval"`
	Item     PlanItem `json:"item"`
}

// API is the narrow surface of the payment gateway this service uses.
// The concrete Client talks to Razorpay; tests substitute fakes.
type API interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error)
	CancelSubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*Subscription, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreatePlan(ctx context.Context, period string, interval int, item PlanItem) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
}

// Client is the Razorpay-backed gateway client.
type Client struct {
	keyID      string
	keySecret  string
	APIBaseURL string
	HTTPClient *http.Client
}

// NewClient creates a gateway client with explicit credentials.
func NewClient(keyID, keySecret string) *Client {
	return &Client{
		keyID:      strings.TrimSpace(keyID),
		keySecret:  strings.TrimSpace(keySecret),
		APIBaseURL: defaultAPIBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientFromEnv builds a client from environment configuration.
// RAZORPAY_MODE selects between the test and live credential pair.
func NewClientFromEnv() *Client {
	mode := strings.ToLower(env.GetEnv("RAZORPAY_MODE", "test"))
	keyID := env.GetEnv("RAZORPAY_TEST_KEY_ID", "")
	keySecret := env.GetEnv("RAZORPAY_TEST_KEY_SECRET", "")
	if mode == "live" {
		keyID = env.GetEnv("RAZORPAY_LIVE_KEY_ID", "")
		keySecret = env.GetEnv("RAZORPAY_LIVE_KEY_SECRET", "")
	}

	c := NewClient(keyID, keySecret)
	if base := strings.TrimSpace(env.GetEnv("RAZORPAY_API_BASE_URL", "")); base != "" {
		c.APIBaseURL = strings.TrimRight(base, "/")
	}
	return c
}

// KeySecretFromEnv returns the webhook/signature secret matching the
// configured mode. It equals the API key secret for Razorpay.
func KeySecretFromEnv() string {
	if strings.ToLower(env.GetEnv("RAZORPAY_MODE", "test")) == "live" {
		return env.GetEnv("RAZORPAY_LIVE_KEY_SECRET", "")
	}
	return env.GetEnv("RAZORPAY_TEST_KEY_SECRET", "")
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID returns the public key id, exposed to clients that embed the gateway
// checkout.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates a payment order. Amount must already be in paise.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelSubscription requests cancellation of a recurring subscription.
// With cancelAtCycleEnd the subscription stays active until the current
// billing period ends.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*Subscription, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, errors.New("subscription id is required")
	}

	cycleEnd := 0
	if cancelAtCycleEnd {
		cycleEnd = 1
	}
	payload := map[string]interface{}{
		"cancel_at_cycle_end": cycleEnd,
	}

	var sub Subscription
	path := fmt.Sprintf("/subscriptions/%s/cancel", subscriptionID)
	if err := c.do(ctx, http.MethodPost, path, payload, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// FetchSubscription loads the gateway state of a subscription.
func (c *Client) FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, errors.New("subscription id is required")
	}

	var sub Subscription
	path := fmt.Sprintf("/subscriptions/%s", subscriptionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreatePlan creates a billing plan at the gateway.
func (c *Client) CreatePlan(ctx context.Context, period string, interval int, item PlanItem) (*Plan, error) {
	payload := map[string]interface{}{
		"period":   period,
		"interval": interval,
		"item": map[string]interface{}{
			"name":     item.Name,
			"amount":   item.Amount,
			"currency": item.Currency,
		},
	}

	var plan Plan
	if err := c.do(ctx, http.MethodPost, "/plans", payload, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans fetches all plans known to the gateway.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var resp struct {
		Count int    `json:"count"`
		Items []Plan `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/plans", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode gateway request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(method+" "+path, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

func parseAPIError(op string, statusCode int, raw []byte) error {
	var body struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	gErr := &Error{Op: op, StatusCode: statusCode}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Code != "" {
		gErr.Code = body.Error.Code
		gErr.Description = body.Error.Description
	} else {
		gErr.Code = "UNKNOWN"
		gErr.Description = string(raw)
	}
	return gErr
}
