// Package clock drives real-time advancement. A cron ticker walks every
// calendar with a positive advance ratio and moves its world clock by the
// real seconds elapsed since the last tick, scaled by that ratio. The
// advancement itself is row-locked in the repository, so overlapping ticks
// (or multiple instances) never double-count an interval.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
)

// tickTimeout bounds one full pass over the real-time calendars.
const tickTimeout = 30 * time.Second

// Store is the slice of the calendar repository the ticker needs.
type Store interface {
	ListRealTime(ctx context.Context) ([]calendars.Calendar, error)
	AdvanceRealTime(ctx context.Context, id string, now time.Time) (int64, int64, error)
}

// Ticker periodically advances every real-time calendar.
type Ticker struct {
	store Store
	cron  *cron.Cron
	spec  string
}

// NewTicker builds a ticker on the given cron spec. The spec accepts the
// standard five-field syntax and descriptors such as "@every 1m".
func NewTicker(store Store, spec string) *Ticker {
	return &Ticker{store: store, cron: cron.New(), spec: spec}
}

// Start registers the tick job and launches the cron scheduler.
func (t *Ticker) Start() error {
	if _, err := t.cron.AddFunc(t.spec, t.tick); err != nil {
		return fmt.Errorf("parse clock spec %q: %w", t.spec, err)
	}
	t.cron.Start()
	slog.Info("clock ticker started", "spec", t.spec)
	return nil
}

// Stop halts the scheduler and waits for an in-flight tick to finish.
func (t *Ticker) Stop() {
	<-t.cron.Stop().Done()
	slog.Info("clock ticker stopped")
}

// tick advances each real-time calendar once. Failures are logged per
// calendar so one broken row cannot stall the rest.
func (t *Ticker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	cals, err := t.store.ListRealTime(ctx)
	if err != nil {
		slog.Warn("clock tick failed to list calendars", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, cal := range cals {
		worldTime, delta, err := t.store.AdvanceRealTime(ctx, cal.ID, now)
		if err != nil {
			slog.Warn("clock tick failed to advance calendar", "calendar_id", cal.ID, "error", err)
			continue
		}
		if delta != 0 {
			slog.Debug("clock advanced", "calendar_id", cal.ID, "delta", delta, "world_time", worldTime)
		}
	}
}
