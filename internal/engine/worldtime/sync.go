package worldtime

import (
	"github.com/keyxmakerx/almanac/internal/engine/schema"
)

// SyncState aligns the world clock with an externally authoritative
// chronology. It is a derived value: recompute it with ComputeSync whenever
// sync is toggled or the schema changes, and pass it to NewConverter.
// Conversions never mutate it.
type SyncState struct {
	// Offset is added to world time before decoding and subtracted after
	// encoding, so the anchor's world time decodes to the anchor date.
	Offset int64 `json:"offset"`
	// FirstWeekday replaces the schema's first weekday so that continuous
	// weekday math reproduces the anchor's authoritative weekday.
	FirstWeekday int `json:"first_weekday"`
}

// Anchor is an externally authoritative instant: a calendar date and time
// of day, its weekday, and the world clock value observed at that same
// moment.
type Anchor struct {
	Date      schema.Date `json:"date"`
	Hour      int         `json:"hour"`
	Minute    int         `json:"minute"`
	Second    int         `json:"second"`
	Weekday   int         `json:"weekday"`
	WorldTime int64       `json:"world_time"`
}

// ComputeSync derives the sync state that makes conversions under cal agree
// with the anchor. The anchor date's second count is derived with the
// calendar's own cycle math; the offset is the gap between that and the
// observed world clock. FirstWeekday is back-solved so the continuous
// weekday of the anchor date equals the anchor's weekday.
func ComputeSync(cal *schema.Calendar, a Anchor) SyncState {
	base := NewConverter(cal, nil)
	secs := base.FromComponents(Components{
		Year:   a.Date.Year,
		Month:  a.Date.Month,
		Day:    a.Date.Day,
		Hour:   a.Hour,
		Minute: a.Minute,
		Second: a.Second,
	})
	st := SyncState{Offset: secs - a.WorldTime}

	wc := int64(cal.WeekLength())
	if base.degenerate() || wc <= 0 {
		return st
	}
	epochDay := floorDiv(secs, cal.SecondsPerDay())
	_, _, _, skipped := base.splitDay(epochDay)
	st.FirstWeekday = int(mod(int64(a.Weekday)-mod(epochDay-skipped, wc), wc))
	return st
}
