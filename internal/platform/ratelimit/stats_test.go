package ratelimit

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisStatsDefaults(t *testing.T) {
	t.Parallel()

	stats := NewRedisStats(nil, " :forms: ", 0)
	if stats.prefix != "forms" {
		t.Fatalf("prefix = %q, want %q", stats.prefix, "forms")
	}
	if stats.ttl != 24*time.Hour {
		t.Fatalf("ttl = %s, want 24h", stats.ttl)
	}
	if NewRedisStats(nil, "", time.Minute).prefix != "pepedome:ratelimit" {
		t.Fatal("expected default prefix")
	}
}

func TestRedisStatsRecordWithoutClientIsNoop(t *testing.T) {
	t.Parallel()

	var nilStats *RedisStats
	if err := nilStats.Record(context.Background(), Decision{Key: "1.2.3.4"}); err != nil {
		t.Fatalf("nil Record() error = %v", err)
	}
	if err := NewRedisStats(nil, "", 0).Record(context.Background(), Decision{Key: "1.2.3.4"}); err != nil {
		t.Fatalf("Record() without client error = %v", err)
	}
}

func TestRedisStatsRecordReportsUnreachableServer(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	stats := NewRedisStats(rdb, "test", time.Minute)
	if err := stats.Record(context.Background(), Decision{Key: "1.2.3.4", Allowed: true}); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
}

// TestRedisStatsCountsDecisions runs against a real server when
// PEPEDOME_TEST_REDIS_ADDR is set.
func TestRedisStatsCountsDecisions(t *testing.T) {
	addr := os.Getenv("PEPEDOME_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PEPEDOME_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "pepedome:test:" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
	})
	stats := NewRedisStats(rdb, prefix, time.Minute)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	for _, allowed := range []bool{true, true, false} {
		if err := stats.Record(ctx, Decision{Key: "1.2.3.4", Allowed: allowed, Route: "/contact", At: at}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	allowed, denied, err := stats.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if allowed != 2 || denied != 1 {
		t.Fatalf("totals = %d/%d, want 2/1", allowed, denied)
	}
	route, err := rdb.HGet(ctx, prefix+":route", "/contact:denied").Int64()
	if err != nil || route != 1 {
		t.Fatalf("route denied = %d, %v; want 1", route, err)
	}
}
