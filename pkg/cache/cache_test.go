package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, prefix string) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, prefix), mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, "monitor")

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("monitor:k"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_TTLExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, "")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ClearOnlyTouchesPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, "monitor")

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, mr.Set("other:c", "3"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("monitor:a"))
	assert.False(t, mr.Exists("monitor:b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, "p")

	type payload struct {
		Price int `json:"price"`
	}
	require.NoError(t, SetJSON(ctx, c, "j", payload{Price: 321}, time.Minute))

	var got payload
	require.NoError(t, GetJSON(ctx, c, "j", &got))
	assert.Equal(t, 321, got.Price)

	assert.ErrorIs(t, GetJSON(ctx, c, "nope", &got), ErrCacheMiss)
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	opts := RedisOptions{Host: mr.Host(), Port: mr.Port()}

	client, err := NewRedisClient(context.Background(), opts)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), opts)
	assert.Error(t, err)
}

func TestSearchKey(t *testing.T) {
	a := SearchKey("TLV|CDG,ORY|2026-04-01|2026-04-05")
	b := SearchKey("TLV|CDG,ORY|2026-04-08|2026-04-12")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, SearchKey("TLV|CDG,ORY|2026-04-01|2026-04-05"))
	assert.Contains(t, a, "search:")
}
