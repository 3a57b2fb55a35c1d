package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
)

type mockStore struct {
	listFn    func(ctx context.Context) ([]calendars.Calendar, error)
	advanceFn func(ctx context.Context, id string, now time.Time) (int64, int64, error)
}

func (m *mockStore) ListRealTime(ctx context.Context) ([]calendars.Calendar, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) AdvanceRealTime(ctx context.Context, id string, now time.Time) (int64, int64, error) {
	if m.advanceFn != nil {
		return m.advanceFn(ctx, id, now)
	}
	return 0, 0, nil
}

func TestTickAdvancesEveryCalendar(t *testing.T) {
	var advanced []string
	store := &mockStore{
		listFn: func(ctx context.Context) ([]calendars.Calendar, error) {
			return []calendars.Calendar{{ID: "cal-1"}, {ID: "cal-2"}}, nil
		},
		advanceFn: func(ctx context.Context, id string, now time.Time) (int64, int64, error) {
			advanced = append(advanced, id)
			return 100, 60, nil
		},
	}

	NewTicker(store, "@every 1m").tick()

	if len(advanced) != 2 || advanced[0] != "cal-1" || advanced[1] != "cal-2" {
		t.Fatalf("advanced = %v, want [cal-1 cal-2]", advanced)
	}
}

func TestTickContinuesPastFailures(t *testing.T) {
	var advanced []string
	store := &mockStore{
		listFn: func(ctx context.Context) ([]calendars.Calendar, error) {
			return []calendars.Calendar{{ID: "cal-1"}, {ID: "cal-2"}}, nil
		},
		advanceFn: func(ctx context.Context, id string, now time.Time) (int64, int64, error) {
			advanced = append(advanced, id)
			if id == "cal-1" {
				return 0, 0, errors.New("deadlock")
			}
			return 100, 60, nil
		},
	}

	NewTicker(store, "@every 1m").tick()

	if len(advanced) != 2 {
		t.Fatalf("advanced %d calendars, want 2 (failures must not stall the pass)", len(advanced))
	}
}

func TestTickListFailureSkipsPass(t *testing.T) {
	calls := 0
	store := &mockStore{
		listFn: func(ctx context.Context) ([]calendars.Calendar, error) {
			return nil, errors.New("db down")
		},
		advanceFn: func(ctx context.Context, id string, now time.Time) (int64, int64, error) {
			calls++
			return 0, 0, nil
		},
	}

	NewTicker(store, "@every 1m").tick()

	if calls != 0 {
		t.Fatalf("advance called %d times after list failure, want 0", calls)
	}
}

func TestTickUsesOneTimestampPerPass(t *testing.T) {
	var stamps []time.Time
	store := &mockStore{
		listFn: func(ctx context.Context) ([]calendars.Calendar, error) {
			return []calendars.Calendar{{ID: "cal-1"}, {ID: "cal-2"}}, nil
		},
		advanceFn: func(ctx context.Context, id string, now time.Time) (int64, int64, error) {
			stamps = append(stamps, now)
			return 0, 0, nil
		},
	}

	NewTicker(store, "@every 1m").tick()

	if len(stamps) != 2 {
		t.Fatalf("got %d advances, want 2", len(stamps))
	}
	if !stamps[0].Equal(stamps[1]) {
		t.Errorf("calendars advanced with different timestamps: %v vs %v", stamps[0], stamps[1])
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	if err := NewTicker(&mockStore{}, "every minute or so").Start(); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartAndStop(t *testing.T) {
	ticker := NewTicker(&mockStore{}, "@every 1h")
	if err := ticker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ticker.Stop()
}
