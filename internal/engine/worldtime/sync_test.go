package worldtime

import (
	"testing"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
)

// 2024-03-01 was a Friday (weekday 5, Sunday first). The world clock read
// 5000 at the moment sync was enabled.
func marchAnchor() Anchor {
	return Anchor{
		Date:      schema.Date{Year: 2024, Month: 2, Day: 0},
		Hour:      12,
		Weekday:   5,
		WorldTime: 5000,
	}
}

func TestComputeSync_AnchorRoundTrip(t *testing.T) {
	cal := gregorianCalendar()
	st := ComputeSync(cal, marchAnchor())
	conv := NewConverter(cal, &st)

	c := conv.ToComponents(5000)
	assertDate(t, c, 2024, 2, 0)
	if c.Hour != 12 || c.Minute != 0 || c.Second != 0 {
		t.Errorf("got time %02d:%02d:%02d, want 12:00:00", c.Hour, c.Minute, c.Second)
	}
	if c.DayOfWeek != 5 {
		t.Errorf("anchor weekday = %d, want 5", c.DayOfWeek)
	}

	if got := conv.FromComponents(c); got != 5000 {
		t.Errorf("FromComponents(anchor) = %d, want 5000", got)
	}
}

func TestComputeSync_WeekdayProgression(t *testing.T) {
	cal := gregorianCalendar()
	// Mangle the authored first weekday; ComputeSync must correct it.
	cal.FirstWeekday = 0
	st := ComputeSync(cal, marchAnchor())
	conv := NewConverter(cal, &st)

	if wd := conv.ToComponents(5000 + 86400).DayOfWeek; wd != 6 {
		t.Errorf("day after anchor weekday = %d, want 6", wd)
	}
	if wd := conv.ToComponents(5000 + 2*86400).DayOfWeek; wd != 0 {
		t.Errorf("two days after anchor weekday = %d, want 0", wd)
	}
}

func TestComputeSync_OffsetSign(t *testing.T) {
	cal := twoMonthCalendar()
	// Anchor at the schema epoch with a world clock already at 1000:
	// internal seconds 0, so the offset is -1000.
	st := ComputeSync(cal, Anchor{WorldTime: 1000})
	if st.Offset != -1000 {
		t.Errorf("Offset = %d, want -1000", st.Offset)
	}

	conv := NewConverter(cal, &st)
	assertDate(t, conv.ToComponents(1000), 0, 0, 0)
}

func TestSyncRoundTrip(t *testing.T) {
	cal := gregorianCalendar()
	st := ComputeSync(cal, marchAnchor())
	conv := NewConverter(cal, &st)

	for tm := int64(-2_000_000); tm <= 2_000_000; tm += 777_777 {
		if got := conv.FromComponents(conv.ToComponents(tm)); got != tm {
			t.Fatalf("sync round trip %d -> %d", tm, got)
		}
	}
}

func TestComputeSync_DegenerateSchema(t *testing.T) {
	st := ComputeSync(&schema.Calendar{}, marchAnchor())
	if st.FirstWeekday != 0 {
		t.Errorf("FirstWeekday = %d, want 0 on degenerate schema", st.FirstWeekday)
	}
}
