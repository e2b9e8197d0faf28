package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStashStore_PutGetRoundTrip(t *testing.T) {
	store := NewRedisStashStore(setupRedis(t))
	ctx := context.Background()

	in := &PlanStash{
		VendorID:     "vendor-1",
		Plan:         "Shelf",
		BillingCycle: "yearly",
		Amount:       120,
		Currency:     "USD",
		Categories:   []string{"fashion", "art"},
	}
	require.NoError(t, store.Put(ctx, in))

	out, err := store.Get(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStashStore_GetMissing(t *testing.T) {
	store := NewRedisStashStore(setupRedis(t))

	_, err := store.Get(context.Background(), "vendor-none")
	assert.ErrorIs(t, err, ErrStashNotFound)
}

func TestStashStore_PutOverwrites(t *testing.T) {
	store := NewRedisStashStore(setupRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &PlanStash{VendorID: "vendor-1", Plan: "Shelf"}))
	require.NoError(t, store.Put(ctx, &PlanStash{VendorID: "vendor-1", Plan: "Counter"}))

	out, err := store.Get(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, "Counter", out.Plan)
}

func TestStashStore_Delete(t *testing.T) {
	store := NewRedisStashStore(setupRedis(t))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &PlanStash{VendorID: "vendor-1", Plan: "Shelf"}))
	require.NoError(t, store.Delete(ctx, "vendor-1"))

	_, err := store.Get(ctx, "vendor-1")
	assert.ErrorIs(t, err, ErrStashNotFound)
}

func TestStashStore_DeleteMissingIsIdempotent(t *testing.T) {
	store := NewRedisStashStore(setupRedis(t))
	assert.NoError(t, store.Delete(context.Background(), "vendor-none"))
}

func TestPlanCache_RoundTripWithoutTTL(t *testing.T) {
	client := setupRedis(t)
	cache := NewRedisPlanCache(client)
	ctx := context.Background()

	plan := &VendorPlan{
		VendorID:     "vendor-1",
		Plan:         "Shelf",
		BillingCycle: "monthly",
		UpgradedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, cache.SetPlan(ctx, plan))

	out, err := cache.GetPlan(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, plan.Plan, out.Plan)

	ttl := client.TTL(ctx, "vendor:plan:vendor-1").Val()
	assert.Equal(t, time.Duration(-1), ttl, "cached plan must not expire")
}

func TestPlanCache_GetMissing(t *testing.T) {
	cache := NewRedisPlanCache(setupRedis(t))

	_, err := cache.GetPlan(context.Background(), "vendor-none")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
