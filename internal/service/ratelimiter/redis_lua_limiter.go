package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
)

// RedisLuaLimiter shares the fixed window across instances. The check and the
// increment run in one script so concurrent admissions cannot overshoot Max.
type RedisLuaLimiter struct {
	redis  redis.Scripter
	cfg    WindowConfig
	prefix string
	script *redis.Script
}

var _ domain.Limiter = (*RedisLuaLimiter)(nil)

// NewRedisLuaLimiter returns nil when rdb is nil so callers can fall back to
// FixedWindow.
func NewRedisLuaLimiter(rdb redis.Scripter, cfg WindowConfig) *RedisLuaLimiter {
	if rdb == nil {
		return nil
	}
	return &RedisLuaLimiter{
		redis:  rdb,
		cfg:    cfg.normalized(),
		prefix: "rate:chat:",
		script: redis.NewScript(luaFixedWindowScript),
	}
}

// KEYS[1] counter key; ARGV[1] max; ARGV[2] window in ms.
// Returns {allowed, count, ttl_ms}.
const luaFixedWindowScript = `
local key = KEYS[1]
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
local ttl = redis.call("PTTL", key)

if current > 0 and ttl < 0 then
  redis.call("PEXPIRE", key, window)
  ttl = window
end

if current >= max then
  return { 0, current, ttl }
end

current = redis.call("INCR", key)
if current == 1 then
  redis.call("PEXPIRE", key, window)
  ttl = window
end

return { 1, current, ttl }
`

// Admit implements domain.Limiter. Redis failures admit the request and
// return the error for logging.
func (l *RedisLuaLimiter) Admit(ctx context.Context, key string) (bool, error) {
	if l == nil || l.redis == nil {
		return true, nil
	}
	res, err := l.script.Run(ctx, l.redis, []string{l.prefix + key}, l.cfg.Max, l.cfg.Window.Milliseconds()).Result()
	if err != nil {
		obsctx.LoggerFromContext(ctx).Error("redis rate limiter script error", slog.String("key", key), slog.Any("error", err))
		return true, fmt.Errorf("op=ratelimiter.admit: %w", err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 3 {
		obsctx.LoggerFromContext(ctx).Error("redis rate limiter unexpected script result", slog.String("key", key), slog.Any("result", res))
		return true, nil
	}
	return toInt64(vals[0]) == 1, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
