package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisViewStateRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewStateRepository creates a ViewStateRepository backed by Redis.
// Keys are namespaced with prefix and expire after ttl.
func NewRedisViewStateRepository(client *redis.Client, prefix string, ttl time.Duration) ViewStateRepository {
	return &redisViewStateRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisViewStateRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Load decodes the state stored under key into dst
func (r *redisViewStateRepository) Load(ctx context.Context, key string, dst interface{}) error {
	payload, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrViewStateNotFound
		}
		return fmt.Errorf("failed to load view state: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode view state: %w", err)
	}
	return nil
}

// Save stores value under key and refreshes its expiry
func (r *redisViewStateRepository) Save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view state: %w", err)
	}

	if err := r.client.Set(ctx, r.key(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save view state: %w", err)
	}
	return nil
}

// Delete removes the state stored under key
func (r *redisViewStateRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete view state: %w", err)
	}
	return nil
}
