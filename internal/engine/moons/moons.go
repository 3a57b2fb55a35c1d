// Package moons computes cyclic moon-phase state from a moon's cycle
// definition and the world clock. Phase lookups are pure and day-granular;
// callers that render every tick should cache results by day ordinal.
package moons

import (
	"math"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// Phase describes where a moon sits in its cycle on a given day.
type Phase struct {
	Index         int     `json:"index"`
	Name          string  `json:"name"`
	Icon          string  `json:"icon,omitempty"`
	DaysInto      float64 `json:"days_into"`
	DaysUntilNext float64 `json:"days_until_next"`
}

// Current returns the moon's phase at the given world time, or nil when the
// moon's configuration is incomplete: non-positive cycle length, no phases,
// or a first-new-moon reference outside the calendar. It never panics.
func Current(worldTime int64, m *schema.Moon, conv *worldtime.Converter) *Phase {
	if m == nil || conv == nil || m.CycleLength <= 0 || len(m.Phases) == 0 {
		return nil
	}
	cal := conv.Schema()
	spd := cal.SecondsPerDay()
	if spd <= 0 || m.FirstNewMoon.Month < 0 || m.FirstNewMoon.Month >= len(cal.Months) {
		return nil
	}

	ref := conv.FromComponents(worldtime.Components{
		Year:  m.FirstNewMoon.Year,
		Month: m.FirstNewMoon.Month,
		Day:   m.FirstNewMoon.Day,
	})
	diff := worldTime - ref
	daysSince := diff / spd
	if diff%spd != 0 && diff < 0 {
		daysSince--
	}

	// Reduce into [0, cycle). The correction rounds the cycle count up so
	// days before the reference land on the tail of a cycle.
	pos := float64(daysSince) + m.Offset
	if pos < 0 {
		pos += math.Ceil(-pos/m.CycleLength) * m.CycleLength
	}
	pos = math.Mod(pos, m.CycleLength)

	cum := 0.0
	for i := range m.Phases {
		p := &m.Phases[i]
		if pos < cum+p.Length {
			return &Phase{
				Index:         i,
				Name:          p.Name,
				Icon:          p.Icon,
				DaysInto:      pos - cum,
				DaysUntilNext: p.Length - (pos - cum),
			}
		}
		cum += p.Length
	}

	// Authored phase lengths fall short of the cycle; let the first phase
	// absorb the leftover instead of indexing out of bounds.
	p := &m.Phases[0]
	return &Phase{
		Index:         0,
		Name:          p.Name,
		Icon:          p.Icon,
		DaysInto:      pos - cum,
		DaysUntilNext: p.Length - (pos - cum),
	}
}
