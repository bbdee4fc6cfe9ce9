package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"peerbets/domain/entities"

	"github.com/redis/go-redis/v9"
)

const oddsKeyPrefix = "odds:event:"

// RedisOddsCache stores odds snapshots in Redis with a TTL
type RedisOddsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOddsCache creates a new Redis-backed odds cache
func NewRedisOddsCache(client *redis.Client, ttl time.Duration) *RedisOddsCache {
	return &RedisOddsCache{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// GetOdds returns the cached snapshot of an event
func (c *RedisOddsCache) GetOdds(ctx context.Context, eventID int64) (*entities.OddsSnapshot, bool, error) {
	data, err := c.client.Get(ctx, oddsKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get odds for event %d: %w", eventID, err)
	}

	var snapshot entities.OddsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode odds for event %d: %w", eventID, err)
	}
	return &snapshot, true, nil
}

// SetOdds stores a snapshot until the TTL expires or it is invalidated
func (c *RedisOddsCache) SetOdds(ctx context.Context, snapshot *entities.OddsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode odds: %w", err)
	}
	if err := c.client.Set(ctx, oddsKey(snapshot.EventID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set odds for event %d: %w", snapshot.EventID, err)
	}
	return nil
}

// Invalidate drops the snapshot of an event
func (c *RedisOddsCache) Invalidate(ctx context.Context, eventID int64) error {
	if err := c.client.Del(ctx, oddsKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate odds for event %d: %w", eventID, err)
	}
	return nil
}

func oddsKey(eventID int64) string {
	return oddsKeyPrefix + strconv.FormatInt(eventID, 10)
}
