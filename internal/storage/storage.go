// Package storage provides the key-value persistence used for lead profiles.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("key not found")

// KeyValue stores opaque string values by key
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
