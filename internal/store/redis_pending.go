package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "mixcoach:pending:"

// redisKV is the subset of the go-redis client the pending repo uses.
type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// RedisPending keeps pending assessments in Redis and lets key expiry
// enforce the TTL.
type RedisPending struct {
	rdb redisKV
	ttl time.Duration
}

// NewRedisPending wraps an existing client.
func NewRedisPending(rdb redisKV, ttl time.Duration) *RedisPending {
	return &RedisPending{rdb: rdb, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(addr, password string, db int) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *RedisPending) Put(ctx context.Context, p *PendingAssessment) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending assessment: %w", err)
	}
	if err := r.rdb.Set(ctx, pendingKeyPrefix+p.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending assessment: %w", err)
	}
	return nil
}

func (r *RedisPending) Get(ctx context.Context, id string) (*PendingAssessment, error) {
	raw, err := r.rdb.Get(ctx, pendingKeyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get pending assessment: %w", err)
	}
	var p PendingAssessment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode pending assessment: %w", err)
	}
	return &p, nil
}

func (r *RedisPending) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, pendingKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del pending assessment: %w", err)
	}
	return nil
}
