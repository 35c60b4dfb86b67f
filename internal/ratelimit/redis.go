package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tapolio:ratelimit:"

// allowScript prunes, counts and records in one step so concurrent callers
// cannot all pass the count check before any of them is added.
// KEYS[1] window key; ARGV: now, cutoff, limit, ttl ms, member.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisLimiter shares the sliding window between server replicas using one
// sorted set per client, scored by request time in microseconds.
type RedisLimiter struct {
	rdb redis.Scripter
	cfg Config
	now func() time.Time
}

func NewRedisLimiter(rdb redis.Scripter, cfg Config, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{rdb: rdb, cfg: cfg, now: now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.cfg.Window).UnixMicro()

	admitted, err := allowScript.Run(ctx, l.rdb, []string{redisKeyPrefix + key},
		strconv.FormatInt(now.UnixMicro(), 10),
		strconv.FormatInt(cutoff, 10),
		l.cfg.MaxRequests,
		l.cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("check rate window for %s: %w", key, err)
	}
	return admitted == 1, nil
}
