package handlers

import (
	"context"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// Cache mirrors the record into the status cache.
type Cache struct {
	cache StatusCache
}

// NewCache creates a cache handler.
func NewCache(c StatusCache) *Cache {
	return &Cache{cache: c}
}

func (c *Cache) Name() string { return "cache" }

func (c *Cache) Handle(ctx context.Context, r *telemetry.Record) error {
	return c.cache.Set(ctx, r)
}
