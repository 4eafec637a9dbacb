package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is one limiter outcome reported to a StatsRecorder.
type Decision struct {
	Key     string
	Allowed bool
	Route   string
	At      time.Time
}

// StatsRecorder persists limiter decisions. Recording is best effort.
type StatsRecorder interface {
	Record(ctx context.Context, decision Decision) error
}

// RedisStats counts allowed and denied decisions in Redis hashes: a
// cumulative total, one hash per minute bucket, and per-route counters.
type RedisStats struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStats builds a Redis-backed recorder. Minute buckets expire after ttl.
func NewRedisStats(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStats {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "pepedome:ratelimit"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStats{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Record increments the counters for decision.
func (s *RedisStats) Record(ctx context.Context, decision Decision) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := decision.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if decision.Allowed {
		field = "allowed"
	}

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	pipe.Expire(ctx, bucketKey, s.ttl)
	if route := strings.TrimSpace(decision.Route); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Totals returns the cumulative allowed and denied counts.
func (s *RedisStats) Totals(ctx context.Context) (allowed int64, denied int64, err error) {
	values, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate limit totals: %w", err)
	}
	fmt.Sscan(values["allowed"], &allowed)
	fmt.Sscan(values["denied"], &denied)
	return allowed, denied, nil
}
