// Package cache provides Redis-backed storage for the latest ranking
// snapshot so downstream consumers can read results without re-running the
// pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/arcticwatch/reescan/internal/score"
)

const latestKey = "reescan:ranking:latest"

// SnapshotCache stores ranking snapshots in Redis with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a snapshot cache against the given Redis address.
func New(addr, password string, db int, ttl time.Duration) *SnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &SnapshotCache{client: client, ttl: ttl}
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// StoreLatest writes the snapshot under the latest-ranking key and under a
// per-batch key for later inspection.
func (c *SnapshotCache) StoreLatest(ctx context.Context, snap score.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, latestKey, data, c.ttl)
	pipe.Set(ctx, batchKey(snap.BatchID), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	log.Debug().Str("batch_id", snap.BatchID).Int("ranked", len(snap.Ranking)).Msg("ranking snapshot cached")
	return nil
}

// Latest returns the most recent snapshot, or found=false when none is
// cached or the TTL expired.
func (c *SnapshotCache) Latest(ctx context.Context) (score.Snapshot, bool, error) {
	return c.get(ctx, latestKey)
}

// Batch returns the snapshot for a specific ingestion batch.
func (c *SnapshotCache) Batch(ctx context.Context, batchID string) (score.Snapshot, bool, error) {
	return c.get(ctx, batchKey(batchID))
}

func (c *SnapshotCache) get(ctx context.Context, key string) (score.Snapshot, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return score.Snapshot{}, false, nil
	}
	if err != nil {
		return score.Snapshot{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap score.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return score.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// Healthy reports whether the Redis connection responds to ping.
func (c *SnapshotCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Close releases the underlying client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}

func batchKey(batchID string) string {
	return "reescan:ranking:batch:" + batchID
}
