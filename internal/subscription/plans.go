package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrPlanNotFound = errors.New("vendor plan not found")

// VendorPlan is the cached view of a vendor's active subscription.
type VendorPlan struct {
	VendorID     string    `json:"vendor_id"`
	Plan         string    `json:"plan"`
	BillingCycle string    `json:"billing_cycle"`
	Categories   []string  `json:"categories,omitempty"`
	UpgradedAt   time.Time `json:"upgraded_at"`
}

type PlanCache interface {
	SetPlan(ctx context.Context, plan *VendorPlan) error
	GetPlan(ctx context.Context, vendorID string) (*VendorPlan, error)
}

type RedisPlanCache struct {
	client *redis.Client
}

func NewRedisPlanCache(client *redis.Client) *RedisPlanCache {
	return &RedisPlanCache{client: client}
}

func planKey(vendorID string) string {
	return "vendor:plan:" + vendorID
}

// SetPlan has no TTL: the cached plan stays current until the next upgrade
// overwrites it.
func (c *RedisPlanCache) SetPlan(ctx context.Context, plan *VendorPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal vendor plan: %w", err)
	}
	if err := c.client.Set(ctx, planKey(plan.VendorID), data, 0).Err(); err != nil {
		return fmt.Errorf("store vendor plan: %w", err)
	}
	return nil
}

func (c *RedisPlanCache) GetPlan(ctx context.Context, vendorID string) (*VendorPlan, error) {
	data, err := c.client.Get(ctx, planKey(vendorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read vendor plan: %w", err)
	}

	var plan VendorPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal vendor plan: %w", err)
	}
	return &plan, nil
}
