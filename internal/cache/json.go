package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// GetJSON decodes a cached JSON value into dst. A decode failure is reported
// as a miss.
func GetJSON(ctx context.Context, c interfaces.Cache, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores value encoded as JSON.
func SetJSON(ctx context.Context, c interfaces.Cache, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}
