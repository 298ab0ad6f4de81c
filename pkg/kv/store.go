package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is the persisted key-value state the session manager and CLI rely on.
// Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
