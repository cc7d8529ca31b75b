package quote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/cryptofunk/internal/metrics"
)

const cacheKey = "poolmind:quote:snapshot"

// snapshotCache wraps Redis as a cache-aside store for the latest snapshot.
// A nil client degrades to an always-miss cache (rebuild every call).
type snapshotCache struct {
	client *metrics.RedisMetrics
	ttl    time.Duration
}

func newSnapshotCache(client *redis.Client, ttl time.Duration) *snapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	var rm *metrics.RedisMetrics
	if client != nil {
		rm = metrics.NewRedisMetrics(client)
	}
	return &snapshotCache{client: rm, ttl: ttl}
}

func (c *snapshotCache) get(ctx context.Context) (*Snapshot, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(cacheCtx, cacheKey)
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Msg("quote cache get error - treating as cache miss")
		}
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Warn().Err(err).Msg("failed to unmarshal cached snapshot")
		return nil, false
	}

	if time.Since(snap.Timestamp) >= c.ttl {
		return nil, false
	}

	return &snap, true
}

// set writes the snapshot back synchronously, bounded by a 500 ms timeout; a
// failed write is logged and otherwise ignored.
func (c *snapshotCache) set(snap *Snapshot) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal snapshot for cache")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := c.client.Set(ctx, cacheKey, data, c.ttl); err != nil {
		log.Warn().Err(err).Msg("failed to cache snapshot")
	}
}
