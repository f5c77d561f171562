package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// Gateway-facing status vocabulary recorded in the mirror store.
const (
	StatusCreated       = "created"
	StatusAuthenticated = "authenticated"
	StatusActive        = "active"
	StatusPaused        = "paused"
	StatusCancelled     = "cancelled"
	StatusHalted        = "halted"
	StatusExpired       = "expired"
)

const keyPrefix = "mirror:subscription:"

// ErrRecordNotFound is returned when no mirror record exists for the id.
var ErrRecordNotFound = errors.New("mirror record not found")

// SubscriptionRecord is the read model consumed by the secondary client
// surface. It is a projection of ledger state, never authoritative.
type SubscriptionRecord struct {
	GatewaySubscriptionID string `json:"gateway_subscription_id"`
	Email                 string `json:"email"`
	Status                string `json:"status"`
	PlanType              string `json:"plan_type,omitempty"`
	BillingCycle          string `json:"billing_cycle,omitempty"`
	CurrentEnd            int64  `json:"current_end,omitempty"`
	UpdatedAt             int64  `json:"updated_at"`
}

// IsValidStatus reports whether the status belongs to the mirror vocabulary.
func IsValidStatus(status string) bool {
	switch status {
	case StatusCreated, StatusAuthenticated, StatusActive, StatusPaused, StatusCancelled, StatusHalted, StatusExpired:
		return true
	default:
		return false
	}
}

// Store is the persistence surface of the mirror. The production store lives
// in Redis; tests substitute an in-memory fake.
type Store interface {
	Get(ctx context.Context, gatewaySubscriptionID string) (*SubscriptionRecord, error)
	Save(ctx context.Context, record *SubscriptionRecord) error
	List(ctx context.Context) ([]SubscriptionRecord, error)
}

// RedisStore keeps mirror records as JSON values under a shared key prefix.
type RedisStore struct{}

// NewRedisStore creates a store over the shared cache client.
func NewRedisStore() *RedisStore {
	return &RedisStore{}
}

func (s *RedisStore) Get(ctx context.Context, gatewaySubscriptionID string) (*SubscriptionRecord, error) {
	raw, err := cache.GetClient().Get(ctx, keyPrefix+gatewaySubscriptionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load mirror record %s: %w", gatewaySubscriptionID, err)
	}

	var record SubscriptionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode mirror record %s: %w", gatewaySubscriptionID, err)
	}
	return &record, nil
}

func (s *RedisStore) Save(ctx context.Context, record *SubscriptionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode mirror record %s: %w", record.GatewaySubscriptionID, err)
	}
	if err := cache.GetClient().Set(ctx, keyPrefix+record.GatewaySubscriptionID, raw, 0).Err(); err != nil {
		return fmt.Errorf("store mirror record %s: %w", record.GatewaySubscriptionID, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]SubscriptionRecord, error) {
	keys, err := cache.ScanKeys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan mirror records: %w", err)
	}

	records := make([]SubscriptionRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := cache.GetClient().Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Deleted between scan and read.
				continue
			}
			return nil, fmt.Errorf("load mirror record %s: %w", key, err)
		}
		var record SubscriptionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode mirror record %s: %w", key, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Projector applies status updates to the mirror. It only touches records
// that already exist; the mirror never invents records it did not create.
type Projector struct {
	store Store
}

// NewProjector creates a projector over the given store.
func NewProjector(store Store) *Projector {
	return &Projector{store: store}
}

// UpsertStatus updates the status of an existing mirror record. A missing
// record is a no-op, not an error.
func (p *Projector) UpsertStatus(ctx context.Context, gatewaySubscriptionID, status string) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid mirror status %q for %s", status, gatewaySubscriptionID)
	}

	record, err := p.store.Get(ctx, gatewaySubscriptionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil
		}
		return err
	}

	record.Status = status
	record.UpdatedAt = time.Now().Unix()
	return p.store.Save(ctx, record)
}

// List enumerates every mirror record, used by the bulk sync repair loop.
func (p *Projector) List(ctx context.Context) ([]SubscriptionRecord, error) {
	return p.store.List(ctx)
}
