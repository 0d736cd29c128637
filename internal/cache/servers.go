package cache

import (
	"context"
	"time"
)

const (
	serverPoolKey = "tunedex:radiobrowser:servers"
	serverPoolTTL = 6 * time.Hour
)

// ServerPool caches a directory's discovered mirror pool across runs so SRV
// lookups are not repeated on every aggregation.
type ServerPool struct {
	redis *Redis
}

// NewServerPool wraps a Redis connection as a server-pool cache.
func NewServerPool(r *Redis) *ServerPool {
	return &ServerPool{redis: r}
}

// GetServers returns the cached pool; redis.Nil when absent or expired.
func (p *ServerPool) GetServers(ctx context.Context) ([]string, error) {
	return Get[[]string](ctx, p.redis, serverPoolKey)
}

// SetServers stores the pool with a TTL so a stale mirror list eventually
// refreshes itself.
func (p *ServerPool) SetServers(ctx context.Context, servers []string) error {
	return Set(ctx, p.redis, serverPoolKey, servers, serverPoolTTL)
}
