package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/ec-cart/internal/domain/cart"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func sampleCart() *cart.Cart {
	c := cart.New(cart.UserOwner("u-1"))
	c.AddItem("P1", 2, decimal.RequireFromString("10.00"), nil)
	c.Recalculate()
	return c
}

func TestRedisCache_SetGetRoundTrip(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()
	c := sampleCart()

	require.NoError(t, rc.Set(ctx, "user:u-1", c))

	got, err := rc.Get(ctx, "user:u-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestRedisCache_MissingKey(t *testing.T) {
	rc, _ := newTestCache(t)

	_, err := rc.Get(context.Background(), "user:nobody")

	assert.ErrorIs(t, err, cart.ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "user:u-1", sampleCart()))
	require.NoError(t, rc.Delete(ctx, "user:u-1"))

	_, err := rc.Get(ctx, "user:u-1")
	assert.ErrorIs(t, err, cart.ErrCacheMiss)
}

func TestRedisCache_DeleteMissingKeyIsNoError(t *testing.T) {
	rc, _ := newTestCache(t)

	assert.NoError(t, rc.Delete(context.Background(), "user:nobody"))
}

func TestRedisCache_EntriesExpire(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "user:u-1", sampleCart()))

	// Base TTL plus maximum jitter.
	mr.FastForward(21 * time.Minute)

	_, err := rc.Get(ctx, "user:u-1")
	assert.ErrorIs(t, err, cart.ErrCacheMiss)
}
