package counter

import (
	"context"
	"strconv"

	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
)

const opCountersKey = "reconcile:counters:ops"

// Operation names tracked in the Redis counter hash.
const (
	OpCancel        = "cancel"
	OpExtend        = "extend"
	OpSync          = "sync"
	OpOrderCreated  = "order_created"
	OpPaymentVerify = "payment_verified"
)

// AddOperation increments the pending counter for a reconciliation operation
// in Redis. Callers treat failures as non-fatal.
func AddOperation(op string) error {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	return client.HIncrBy(context.Background(), opCountersKey, op, 1).Err()
}

// Snapshot returns the current operation counts.
func Snapshot() (map[string]int64, error) {
	client := cache.GetClient()
	if client == nil {
		return map[string]int64{}, nil
	}
	data, err := client.HGetAll(context.Background(), opCountersKey).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(data))
	for op, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[op] = n
	}
	return out, nil
}

// Reset drops all operation counters.
func Reset() error {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	return client.Del(context.Background(), opCountersKey).Err()
}
