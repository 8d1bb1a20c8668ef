// Package kv provides the persistent key-value store that backs the journal.
// Values are JSON documents addressed by string keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Errors shared by all backends.
var (
	ErrUnavailable = errors.New("kv: store unavailable")
	ErrCodec       = errors.New("kv: codec failure")
)

// Store reads and writes JSON values by key.
type Store interface {
	// Get decodes the value stored under key into dest and reports whether the key exists.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
}

func scopedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

func encode(key string, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %q: %w", ErrCodec, key, err)
	}
	return raw, nil
}

func decode(key string, raw []byte, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: decode %q: %w", ErrCodec, key, err)
	}
	return nil
}
