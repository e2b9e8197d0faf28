package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrStashNotFound = errors.New("subscription stash not found")

// PlanStash is the plan/billing selection written before redirecting the
// vendor to the payment provider, read back when they return.
type PlanStash struct {
	VendorID     string   `json:"vendor_id"`
	Plan         string   `json:"plan"`
	BillingCycle string   `json:"billing_cycle"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	Categories   []string `json:"categories,omitempty"`
}

type StashStore interface {
	Put(ctx context.Context, stash *PlanStash) error
	Get(ctx context.Context, vendorID string) (*PlanStash, error)
	Delete(ctx context.Context, vendorID string) error
}

// stashTTL bounds abandoned stashes; within a live upgrade flow the stash is
// removed only by the explicit acknowledgement call.
const stashTTL = 24 * time.Hour

type RedisStashStore struct {
	client *redis.Client
}

func NewRedisStashStore(client *redis.Client) *RedisStashStore {
	return &RedisStashStore{client: client}
}

func stashKey(vendorID string) string {
	return "subscription:stash:" + vendorID
}

func (s *RedisStashStore) Put(ctx context.Context, stash *PlanStash) error {
	data, err := json.Marshal(stash)
	if err != nil {
		return fmt.Errorf("marshal plan stash: %w", err)
	}
	if err := s.client.Set(ctx, stashKey(stash.VendorID), data, stashTTL).Err(); err != nil {
		return fmt.Errorf("store plan stash: %w", err)
	}
	return nil
}

func (s *RedisStashStore) Get(ctx context.Context, vendorID string) (*PlanStash, error) {
	data, err := s.client.Get(ctx, stashKey(vendorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStashNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read plan stash: %w", err)
	}

	var stash PlanStash
	if err := json.Unmarshal(data, &stash); err != nil {
		return nil, fmt.Errorf("unmarshal plan stash: %w", err)
	}
	return &stash, nil
}

func (s *RedisStashStore) Delete(ctx context.Context, vendorID string) error {
	if err := s.client.Del(ctx, stashKey(vendorID)).Err(); err != nil {
		return fmt.Errorf("delete plan stash: %w", err)
	}
	return nil
}
