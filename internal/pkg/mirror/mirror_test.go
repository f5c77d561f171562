package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	records map[string]*SubscriptionRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*SubscriptionRecord)}
}

func (s *memoryStore) Get(ctx context.Context, gatewaySubscriptionID string) (*SubscriptionRecord, error) {
	record, ok := s.records[gatewaySubscriptionID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *memoryStore) Save(ctx context.Context, record *SubscriptionRecord) error {
	copied := *record
	s.records[record.GatewaySubscriptionID] = &copied
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]SubscriptionRecord, error) {
	out := make([]SubscriptionRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func TestProjectorUpsertStatus(t *testing.T) {
	store := newMemoryStore()
	store.records["sub_abc"] = &SubscriptionRecord{
		GatewaySubscriptionID: "sub_abc",
		Email:                 "alice@example.com",
		Status:                StatusActive,
	}
	p := NewProjector(store)

	err := p.UpsertStatus(context.Background(), "sub_abc", StatusCancelled)
	require.NoError(t, err)

	record, err := store.Get(context.Background(), "sub_abc")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, record.Status)
	assert.NotZero(t, record.UpdatedAt)
	// Other fields survive the status update.
	assert.Equal(t, "alice@example.com", record.Email)
}

func TestProjectorUpsertStatus_MissingRecordIsNoOp(t *testing.T) {
	store := newMemoryStore()
	p := NewProjector(store)

	err := p.UpsertStatus(context.Background(), "sub_unknown", StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, store.records)
}

func TestProjectorUpsertStatus_InvalidStatus(t *testing.T) {
	store := newMemoryStore()
	store.records["sub_abc"] = &SubscriptionRecord{GatewaySubscriptionID: "sub_abc", Status: StatusActive}
	p := NewProjector(store)

	err := p.UpsertStatus(context.Background(), "sub_abc", "exploded")
	require.Error(t, err)
	assert.Equal(t, StatusActive, store.records["sub_abc"].Status)
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{StatusCreated, StatusAuthenticated, StatusActive, StatusPaused, StatusCancelled, StatusHalted, StatusExpired} {
		if !IsValidStatus(status) {
			t.Fatalf("expected status %q to be valid", status)
		}
	}
	for _, status := range []string{"", "ACTIVE", "unknown"} {
		if IsValidStatus(status) {
			t.Fatalf("expected status %q to be invalid", status)
		}
	}
}

func TestProjectorList(t *testing.T) {
	store := newMemoryStore()
	store.records["sub_a"] = &SubscriptionRecord{GatewaySubscriptionID: "sub_a", Status: StatusActive}
	store.records["sub_b"] = &SubscriptionRecord{GatewaySubscriptionID: "sub_b", Status: StatusCancelled}
	p := NewProjector(store)

	records, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
