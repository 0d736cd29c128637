package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by TryLock when the lock is already held, i.e. an
// aggregation run is already in progress elsewhere.
var ErrLocked = errors.New("lock is already held")

// TryLock attempts to acquire a distributed lock identified by key, using the
// Redis SET NX EX pattern. token should be unique per holder (e.g. the run
// ID) so only the holder can release. On success it returns an unlock
// function that MUST be called (typically via defer) to release the lock.
func TryLock(ctx context.Context, r *Redis, key, token string, ttl time.Duration) (unlock func(), err error) {
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	// unlock deletes the key only if the token still matches (Lua script for atomicity).
	unlockScript := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`
	return func() {
		// Use a background context so unlock works even if the run context is cancelled.
		_ = r.client.Eval(context.Background(), unlockScript, []string{key}, token).Err()
	}, nil
}

// IsLocked returns true if the lock key exists.
func IsLocked(ctx context.Context, r *Redis, key string) bool {
	n, _ := r.client.Exists(ctx, key).Result()
	return n > 0
}
