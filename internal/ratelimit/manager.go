// Package ratelimit keeps API request counters in Redis so several API
// instances share one budget per client.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "sasmex:"

// Manager provides Redis-backed rate limiting and usage accounting
type Manager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewManager connects to redisURL and verifies the connection
func NewManager(redisURL string) (*Manager, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Manager{redis: client, now: time.Now}, nil
}

func (m *Manager) Close() error { return m.redis.Close() }

func dayKey(t time.Time) string { return t.UTC().Format("20060102") }

// CheckRate counts one request from client in the current minute window. It
// returns allowed=false once more than rpm requests were seen, with the
// seconds left until the window resets.
func (m *Manager) CheckRate(ctx context.Context, client string, rpm int) (allowed bool, resetSec int, err error) {
	now := m.now().UTC()
	window := now.Unix() / 60
	rk := fmt.Sprintf("%srl:%s:%d", keyPrefix, client, window)

	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.Expire(ctx, rk, time.Minute)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	reset := 60 - int(now.Unix()%60)
	if int(incr.Val()) > rpm {
		return false, reset, nil
	}
	return true, reset, nil
}

// IncUsage counts a served request against its route for the current day
func (m *Manager) IncUsage(ctx context.Context, method, route string) error {
	now := m.now().UTC()
	k := fmt.Sprintf("%susage:%s:%s %s", keyPrefix, dayKey(now), method, route)
	pipe := m.redis.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// Usage returns today's per-route request counts keyed by "METHOD /route"
func (m *Manager) Usage(ctx context.Context) (map[string]int, error) {
	prefix := fmt.Sprintf("%susage:%s:", keyPrefix, dayKey(m.now()))
	res := make(map[string]int)

	var cursor uint64
	for {
		keys, cur, err := m.redis.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			v, err := m.redis.Get(ctx, k).Int()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, err
			}
			res[strings.TrimPrefix(k, prefix)] = v
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return res, nil
}
