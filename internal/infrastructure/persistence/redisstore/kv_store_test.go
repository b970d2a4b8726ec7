package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to REDIS_TEST_ADDR; the test is skipped without it.
func newTestStore(t *testing.T, ttl time.Duration) *KVStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	store := NewKVStore(client, "servicedesk-test:"+uuid.NewString()+":", ttl)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, store.Ping(ctx))
	return store
}

func TestKVStore_RoundTrip(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	value, err := store.Get(ctx, "session:missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Put(ctx, "session:a", []byte(`{"version":1}`)))
	value, err = store.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(value))

	require.NoError(t, store.Put(ctx, "session:a", []byte(`{"version":2}`)))
	value, err = store.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(value))

	require.NoError(t, store.Delete(ctx, "session:a"))
	value, err = store.Get(ctx, "session:a")
	require.NoError(t, err)
	assert.Nil(t, value)

	assert.NoError(t, store.Delete(ctx, "session:a"), "deleting a missing key is not an error")
}

func TestKVStore_TTL(t *testing.T) {
	store := newTestStore(t, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "session:short", []byte("x")))

	remaining, err := store.client.TTL(ctx, store.prefix+"session:short").Result()
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, time.Second)
}
