// Package redis publishes device status snapshots for other services.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sempgateway/internal/models"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Store is the subset of redis.Cmdable the cache needs.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// StatusCache keeps the latest snapshot of every device under a TTL, so
// entries of deleted devices expire on their own.
type StatusCache struct {
	store Store
	ttl   time.Duration
}

func NewStatusCache(store Store, ttl time.Duration) *StatusCache {
	return &StatusCache{store: store, ttl: ttl}
}

// StatusKey returns the cache key of a device.
func StatusKey(deviceID string) string {
	return fmt.Sprintf("semp:device:%s:status", deviceID)
}

// StoreSnapshots writes every snapshot and stops at the first failure.
func (c *StatusCache) StoreSnapshots(ctx context.Context, snapshots []models.StatusSnapshot) error {
	for _, s := range snapshots {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding snapshot of %s: %w", s.DeviceID, err)
		}
		if err := c.store.Set(ctx, StatusKey(s.DeviceID), data, c.ttl).Err(); err != nil {
			return fmt.Errorf("caching snapshot of %s: %w", s.DeviceID, err)
		}
	}
	return nil
}

// Snapshot reads back a cached snapshot. A missing key yields redis.Nil.
func (c *StatusCache) Snapshot(ctx context.Context, deviceID string) (*models.StatusSnapshot, error) {
	raw, err := c.store.Get(ctx, StatusKey(deviceID)).Bytes()
	if err != nil {
		return nil, err
	}
	var s models.StatusSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot of %s: %w", deviceID, err)
	}
	return &s, nil
}
