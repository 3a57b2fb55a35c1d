package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/almanac/internal/engine/moons"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// newTestCache spins up a miniredis instance and a cache in front of it.
func newTestCache(t *testing.T) (*Conversions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewConversions(client, time.Minute), mr
}

func TestComponents_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	resolve := func() worldtime.Components {
		calls++
		return worldtime.Components{Year: 12, Month: 3, Day: 7, Hour: 9, DayOfWeek: 2}
	}

	got, hit := c.Components(ctx, "cal-1", 1, 123456, resolve)
	if hit {
		t.Fatal("first lookup should miss")
	}
	if calls != 1 {
		t.Fatalf("resolver calls = %d, want 1", calls)
	}
	if got.Year != 12 || got.Day != 7 {
		t.Fatalf("unexpected components: %+v", got)
	}

	got, hit = c.Components(ctx, "cal-1", 1, 123456, resolve)
	if !hit {
		t.Fatal("second lookup should hit")
	}
	if calls != 1 {
		t.Fatalf("resolver called again on hit: calls = %d", calls)
	}
	if got.Month != 3 || got.DayOfWeek != 2 {
		t.Fatalf("cached components mismatch: %+v", got)
	}
}

func TestComponents_VersionChangeMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	resolve := func() worldtime.Components {
		calls++
		return worldtime.Components{Year: calls}
	}

	c.Components(ctx, "cal-1", 1, 500, resolve)
	got, hit := c.Components(ctx, "cal-1", 2, 500, resolve)
	if hit {
		t.Fatal("bumped version must not hit the old entry")
	}
	if got.Year != 2 {
		t.Fatalf("expected fresh resolve, got %+v", got)
	}
}

func TestComponents_CorruptEntryFallsThrough(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := fmt.Sprintf(componentsKeyFmt, "cal-1", 1, 99)
	mr.Set(key, "not json")

	got, hit := c.Components(ctx, "cal-1", 1, 99, func() worldtime.Components {
		return worldtime.Components{Year: 42}
	})
	if hit {
		t.Fatal("corrupt entry must not count as a hit")
	}
	if got.Year != 42 {
		t.Fatalf("expected resolved value, got %+v", got)
	}

	// The corrupt entry was overwritten with the resolved value.
	_, hit = c.Components(ctx, "cal-1", 1, 99, func() worldtime.Components {
		t.Fatal("resolver should not run after repair")
		return worldtime.Components{}
	})
	if !hit {
		t.Fatal("repaired entry should hit")
	}
}

func TestComponents_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	resolve := func() worldtime.Components {
		calls++
		return worldtime.Components{}
	}

	c.Components(ctx, "cal-1", 1, 7, resolve)
	mr.FastForward(2 * time.Minute)
	_, hit := c.Components(ctx, "cal-1", 1, 7, resolve)
	if hit {
		t.Fatal("expired entry should miss")
	}
	if calls != 2 {
		t.Fatalf("resolver calls = %d, want 2", calls)
	}
}

func TestComponents_RedisDownFallsThrough(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	got, hit := c.Components(ctx, "cal-1", 1, 7, func() worldtime.Components {
		return worldtime.Components{Year: 9}
	})
	if hit {
		t.Fatal("unreachable redis must not report a hit")
	}
	if got.Year != 9 {
		t.Fatalf("expected resolved value, got %+v", got)
	}
}

func TestMoonPhase_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	resolve := func() *moons.Phase {
		calls++
		return &moons.Phase{Index: 3, Name: "Full Moon", DaysInto: 1.5}
	}

	got, hit := c.MoonPhase(ctx, "cal-1", 1, 0, 200, resolve)
	if hit || got == nil {
		t.Fatalf("first lookup: hit=%v phase=%v", hit, got)
	}

	got, hit = c.MoonPhase(ctx, "cal-1", 1, 0, 200, resolve)
	if !hit {
		t.Fatal("second lookup should hit")
	}
	if calls != 1 {
		t.Fatalf("resolver calls = %d, want 1", calls)
	}
	if got.Index != 3 || got.Name != "Full Moon" || got.DaysInto != 1.5 {
		t.Fatalf("cached phase mismatch: %+v", got)
	}
}

func TestMoonPhase_DistinctMoonsDistinctKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.MoonPhase(ctx, "cal-1", 1, 0, 200, func() *moons.Phase {
		return &moons.Phase{Index: 0}
	})
	got, hit := c.MoonPhase(ctx, "cal-1", 1, 1, 200, func() *moons.Phase {
		return &moons.Phase{Index: 5}
	})
	if hit {
		t.Fatal("different moon index must miss")
	}
	if got.Index != 5 {
		t.Fatalf("expected second moon's phase, got %+v", got)
	}
}

func TestMoonPhase_NilNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	resolve := func() *moons.Phase {
		calls++
		return nil
	}

	got, hit := c.MoonPhase(ctx, "cal-1", 1, 0, 200, resolve)
	if got != nil || hit {
		t.Fatalf("nil phase: got=%v hit=%v", got, hit)
	}
	c.MoonPhase(ctx, "cal-1", 1, 0, 200, resolve)
	if calls != 2 {
		t.Fatalf("nil result must not be cached; resolver calls = %d", calls)
	}
}
