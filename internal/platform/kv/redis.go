package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores values as plain strings without expiry.
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis wraps a connected client. Keys are prefixed with namespace.
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	scoped := scopedKey(r.namespace, key)
	raw, err := r.client.Get(ctx, scoped).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: redis get %q: %w", ErrUnavailable, scoped, err)
	}
	if err := decode(scoped, raw, dest); err != nil {
		return true, err
	}
	return true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value any) error {
	scoped := scopedKey(r.namespace, key)
	raw, err := encode(scoped, value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, scoped, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %q: %w", ErrUnavailable, scoped, err)
	}
	return nil
}
