package pending

import (
	"context"

	"github.com/dropDatabas3/actionlink/internal/cache"
)

// CacheBackend guarda el email pendiente en un cache.Client (memory o redis), sin TTL.
type CacheBackend struct {
	c cache.Client
}

// NewCacheBackend crea un Backend sobre c.
func NewCacheBackend(c cache.Client) *CacheBackend {
	return &CacheBackend{c: c}
}

func (b *CacheBackend) Load(ctx context.Context, contextID string) (string, bool, error) {
	v, err := b.c.Get(ctx, Key(contextID))
	if cache.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *CacheBackend) Save(ctx context.Context, contextID, email string) error {
	return b.c.Set(ctx, Key(contextID), email, 0)
}

func (b *CacheBackend) Remove(ctx context.Context, contextID string) error {
	return b.c.Delete(ctx, Key(contextID))
}

func (b *CacheBackend) Ping(ctx context.Context) error { return b.c.Ping(ctx) }
func (b *CacheBackend) Name() string                   { return b.c.Driver() }
