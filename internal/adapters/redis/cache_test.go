package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	redisad "review_sentiment/internal/adapters/redis"
)

type payload struct {
	Rows []string `json:"rows"`
	N    int      `json:"n"`
}

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	var got payload
	ok, err := c.Get(ctx, "batch:1", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "batch:1", payload{Rows: []string{"a", "b"}, N: 2}, 60))
	require.True(t, mr.Exists("sentiment:batch:1"))

	ok, err = c.Get(ctx, "batch:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload{Rows: []string{"a", "b"}, N: 2}, got)

	require.NoError(t, c.Del(ctx, "batch:1"))
	ok, err = c.Get(ctx, "batch:1", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{N: 1}, 30))
	mr.FastForward(31 * time.Second)

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}
