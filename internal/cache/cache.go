// Package cache provides the Redis-backed lookup cache for resolved
// conversions and moon phases. Cache keys embed the calendar's version, so
// schema edits never serve stale entries; superseded keys simply age out
// via TTL instead of being swept.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/almanac/internal/engine/moons"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// Key layouts. calendar id, schema version, then the lookup coordinates.
const (
	componentsKeyFmt = "almanac:conv:%s:%d:%d"
	moonKeyFmt       = "almanac:moon:%s:%d:%d:%d"
)

// Conversions is a read-through cache in front of the pure engine math.
// A failed or missing Redis entry falls through to the resolver; the cache
// never makes a conversion fail.
type Conversions struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewConversions creates a conversion cache with the given entry TTL.
func NewConversions(rdb *redis.Client, ttl time.Duration) *Conversions {
	return &Conversions{rdb: rdb, ttl: ttl}
}

// Components returns the cached components for (calendarID, version,
// worldTime), resolving and storing them on a miss. The second return
// reports whether the value came from the cache.
func (c *Conversions) Components(ctx context.Context, calendarID string, version int64, worldTime int64, resolve func() worldtime.Components) (worldtime.Components, bool) {
	key := fmt.Sprintf(componentsKeyFmt, calendarID, version, worldTime)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var comp worldtime.Components
		if err := json.Unmarshal(data, &comp); err == nil {
			return comp, true
		}
		// Corrupt entry: fall through and overwrite below.
		slog.Warn("discarding corrupt conversion cache entry", slog.String("key", key))
	} else if err != redis.Nil {
		slog.Warn("conversion cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	comp := resolve()
	c.store(ctx, key, comp)
	return comp, false
}

// MoonPhase returns the cached phase for (calendarID, version, moon,
// dayOrdinal), resolving and storing it on a miss. A nil phase from the
// resolver (incomplete moon config) is returned as-is and never cached.
func (c *Conversions) MoonPhase(ctx context.Context, calendarID string, version int64, moonIdx int, dayOrdinal int64, resolve func() *moons.Phase) (*moons.Phase, bool) {
	key := fmt.Sprintf(moonKeyFmt, calendarID, version, moonIdx, dayOrdinal)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var phase moons.Phase
		if err := json.Unmarshal(data, &phase); err == nil {
			return &phase, true
		}
		slog.Warn("discarding corrupt moon cache entry", slog.String("key", key))
	} else if err != redis.Nil {
		slog.Warn("moon cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	phase := resolve()
	if phase == nil {
		return nil, false
	}
	c.store(ctx, key, phase)
	return phase, false
}

// store marshals and writes a cache entry. Write failures are logged and
// swallowed; the caller already has the resolved value.
func (c *Conversions) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshaling cache entry", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
