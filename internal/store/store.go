// Package store provides the key-value persistence behind per-user state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/propscope/internal/apperr"
)

// KV is a string-keyed byte store. Get returns apperr.ErrNotFound for missing keys.
// Consumers depend on this interface rather than the concrete *SQLite type.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Verify *SQLite satisfies KV at compile time.
var _ KV = (*SQLite)(nil)

// GetJSON decodes the value at key into a T. found is false when the key is absent.
func GetJSON[T any](ctx context.Context, kv KV, key string) (value T, found bool, err error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, true, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON[T any](ctx context.Context, kv KV, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}
