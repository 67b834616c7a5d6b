package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Keys shared between writers and the invalidation paths.
const (
	KeyCategories   = "categories:active"
	KeySearchPrefix = "search:"
)

type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

// GetJSON decodes a cached JSON value into dst. A miss or an undecodable
// entry reports false.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

type prefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// DeletePrefix drops every key under prefix when the backend supports it.
func DeletePrefix(ctx context.Context, c Cache, prefix string) error {
	if pd, ok := c.(prefixDeleter); ok {
		return pd.DeletePrefix(ctx, prefix)
	}
	return nil
}
