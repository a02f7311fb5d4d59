package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLuaLimiter(t *testing.T, cfg WindowConfig) (*RedisLuaLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLuaLimiter(rdb, cfg), mr
}

func TestRedisLuaLimiter_NilFailOpen(t *testing.T) {
	var l *RedisLuaLimiter
	ok, err := l.Admit(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, NewRedisLuaLimiter(nil, WindowConfig{}))
}

func TestRedisLuaLimiter_AdmitsMaxThenDenies(t *testing.T) {
	l, mr := newTestRedisLuaLimiter(t, WindowConfig{Max: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Admit(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}
	ok, err := l.Admit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := mr.Get("rate:chat:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "3", v, "denied requests do not increment")
	assert.Equal(t, time.Minute, mr.TTL("rate:chat:10.0.0.1"))

	other, err := l.Admit(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRedisLuaLimiter_WindowExpires(t *testing.T) {
	l, mr := newTestRedisLuaLimiter(t, WindowConfig{Max: 1, Window: time.Minute})
	ctx := context.Background()

	ok, _ := l.Admit(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Admit(ctx, "k")
	require.False(t, ok)

	mr.FastForward(time.Minute)
	ok, err := l.Admit(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLuaLimiter_RepairsMissingTTL(t *testing.T) {
	l, mr := newTestRedisLuaLimiter(t, WindowConfig{Max: 2, Window: time.Minute})
	require.NoError(t, mr.Set("rate:chat:stuck", "2"))

	ok, err := l.Admit(context.Background(), "stuck")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("rate:chat:stuck"))
}

func TestRedisLuaLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	l, mr := newTestRedisLuaLimiter(t, WindowConfig{Max: 1, Window: time.Minute})
	mr.Close()

	ok, err := l.Admit(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}
