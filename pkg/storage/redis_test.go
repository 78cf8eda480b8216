package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client, "labdash:")
}

func TestRedisStore(t *testing.T) {
	_, s := newTestRedis(t)
	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
}

func TestRedisStorePrefix(t *testing.T) {
	mr, s := newTestRedis(t)
	require.NoError(t, s.Set(context.Background(), "token", "abc"))

	v, err := mr.Get("labdash:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}
