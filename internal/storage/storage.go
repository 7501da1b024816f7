// Package storage holds the durable key-value state behind the cart, the checkout form and the
// saved address history. Values are opaque strings; callers own their encoding.
package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key holds nothing.
var ErrNotFound = errors.New("storage: key not found")

// Driver names accepted by config.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Store is a string-valued key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GetJSON decodes the value under key into v. It reports false when the key is absent.
// A value that does not decode is returned as an error; callers decide whether to degrade.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Set(ctx, key, string(b))
}
