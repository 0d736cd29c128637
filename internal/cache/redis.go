package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the go-redis connection shared by the server-pool cache, the
// run lock, and the refresh-job queue. All pipeline access goes through the
// helpers in this package; the raw client is not exposed.
type Redis struct {
	client *redis.Client
}

// New connects to Redis at rawURL (e.g. "redis://host:6379/0") and verifies
// the connection with a ping before returning.
func New(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close shuts down the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get fetches key and JSON-unmarshals the value into T. Returns redis.Nil
// when the key does not exist, so cache misses are distinguishable from
// decode errors.
func Get[T any](ctx context.Context, r *Redis, key string) (T, error) {
	var zero T
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return v, nil
}

// Set JSON-marshals v and stores it under key with the given TTL. A zero TTL
// stores without expiry.
func Set(ctx context.Context, r *Redis, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}
