package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client), mr
}

func TestRedis_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := setupTestRedis(t)

	require.NoError(t, s.Set(ctx, "pizza_cart:abc", `[{"id":"1"}]`))
	raw, err := mr.Get("storefront:pizza_cart:abc")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, raw)
	assert.Zero(t, mr.TTL("storefront:pizza_cart:abc"))

	v, err := s.Get(ctx, "pizza_cart:abc")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, s.Delete(ctx, "pizza_cart:abc"))
	assert.False(t, mr.Exists("storefront:pizza_cart:abc"))
}

func TestRedis_GetMissing(t *testing.T) {
	s, _ := setupTestRedis(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "redis get: ")
	assert.NotEqual(t, err, errors.Cause(err), "wrapped with context")
	assert.Error(t, s.Ping(context.Background()))
}
