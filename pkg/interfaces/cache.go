package interfaces

import (
	"context"
	"time"
)

// Cache stores opaque values by key. Hosts can supply their own
// implementation; the storefront ships memory and redis backed ones.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
