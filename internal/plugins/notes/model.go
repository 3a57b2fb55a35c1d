// Package notes implements calendar notes for Almanac. A note is anchored
// to a calendar date in its world and may repeat: every N days, months, or
// years, or by an advanced rule (moon phases, nth weekdays, fixed week
// positions, or deterministic random days). Notes carry a visibility so
// GM-only material never reaches player-facing API keys.
//
// Occurrence queries evaluate recurrence in memory against the world's
// calendar; nothing recurrence-related is filtered in SQL.
package notes

import (
	"time"

	"github.com/keyxmakerx/almanac/internal/engine/recurrence"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
)

// Visibility values. GM-only notes are hidden from player-scoped reads.
const (
	VisibilityEveryone = "everyone"
	VisibilityGMOnly   = "gm_only"
)

// Rule kinds for advanced recurrence.
const (
	RuleLunar     = "lunar"
	RuleWeekday   = "weekday"
	RuleWeekIndex = "week_index"
	RuleRandom    = "random"
)

// Note is a calendar note within a world. Month and Day are 0-based
// indices into the world's calendar.
type Note struct {
	ID      string `json:"id"`
	WorldID string `json:"world_id"`

	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category,omitempty"`
	Color      string `json:"color,omitempty"`
	Visibility string `json:"visibility"`

	// Anchor date and time of day. AllDay notes ignore the time part.
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	Day    int  `json:"day"`
	Hour   int  `json:"hour"`
	Minute int  `json:"minute"`
	AllDay bool `json:"all_day"`

	// Recurrence. Repeat mirrors recurrence.Unit; Interval is the period
	// for the simple units; RepeatCount bounds total occurrences (0 =
	// unbounded). Rule is set only when Repeat is "advanced".
	Repeat      string    `json:"repeat"`
	Interval    int       `json:"interval"`
	RepeatCount int       `json:"repeat_count"`
	Rule        *RuleSpec `json:"rule,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RuleSpec is the authored advanced-rule configuration, discriminated by
// Kind. It is stored as a JSON column; only the fields relevant to the
// kind are meaningful.
type RuleSpec struct {
	Kind string `json:"kind"`

	// lunar: phase-start days of a moon inside a month window.
	Moon  int `json:"moon,omitempty"`
	Phase int `json:"phase,omitempty"`

	// weekday: the nth weekday of a month. Ordinal -1 means last; Month
	// -1 means every month.
	Ordinal int `json:"ordinal,omitempty"`
	Weekday int `json:"weekday,omitempty"`
	Month   int `json:"month,omitempty"`

	// week_index: fixed week and weekday position in every month. Week -1
	// means the last week.
	Week int `json:"week,omitempty"`
	Day  int `json:"day,omitempty"`

	// lunar and random share the month window; random also samples Count
	// days per year.
	StartMonth int `json:"start_month,omitempty"`
	EndMonth   int `json:"end_month,omitempty"`
	Count      int `json:"count,omitempty"`
}

// engineRule converts the stored rule to its engine form, or nil for an
// unknown kind.
func (r *RuleSpec) engineRule() recurrence.AdvancedRule {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case RuleLunar:
		return recurrence.LunarRule{Moon: r.Moon, Phase: r.Phase, StartMonth: r.StartMonth, EndMonth: r.EndMonth}
	case RuleWeekday:
		return recurrence.WeekdayRule{Ordinal: r.Ordinal, Weekday: r.Weekday, Month: r.Month}
	case RuleWeekIndex:
		return recurrence.WeekIndexRule{Week: r.Week, Day: r.Day}
	case RuleRandom:
		return recurrence.RandomRule{StartMonth: r.StartMonth, EndMonth: r.EndMonth, Count: r.Count}
	}
	return nil
}

// Schedule assembles the engine schedule for this note.
func (n *Note) Schedule() recurrence.Schedule {
	return recurrence.Schedule{
		Start:    schema.Date{Year: n.Year, Month: n.Month, Day: n.Day},
		Unit:     recurrence.Unit(n.Repeat),
		Interval: n.Interval,
		Count:    n.RepeatCount,
		Rule:     n.Rule.engineRule(),
	}
}

// Ref is the compact note form used in day grids and occurrence lists.
type Ref struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	Color      string `json:"color,omitempty"`
	Visibility string `json:"visibility"`
	AllDay     bool   `json:"all_day"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
}

// AsRef returns the compact form of a note.
func (n *Note) AsRef() Ref {
	return Ref{
		ID:         n.ID,
		Title:      n.Title,
		Category:   n.Category,
		Color:      n.Color,
		Visibility: n.Visibility,
		AllDay:     n.AllDay,
		Hour:       n.Hour,
		Minute:     n.Minute,
	}
}

// Occurrence is one resolved hit of a note on a concrete date.
type Occurrence struct {
	Date schema.Date `json:"date"`
	Note Ref         `json:"note"`
}

// MonthGrid is the per-day note layout for one month. Days is indexed by
// 0-based day; each cell lists the notes falling on that day.
type MonthGrid struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Days  [][]Ref `json:"days"`
}

// --- Request DTOs ---

// CreateNoteRequest holds the data submitted when creating a note.
type CreateNoteRequest struct {
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Color      string    `json:"color"`
	Visibility string    `json:"visibility"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Day        int       `json:"day"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	AllDay     bool      `json:"all_day"`
	Repeat     string    `json:"repeat"`
	Interval   int       `json:"interval"`
	Count      int       `json:"repeat_count"`
	Rule       *RuleSpec `json:"rule"`
}

// UpdateNoteRequest holds partial updates; nil fields are left unchanged.
// ClearRule drops the advanced rule, since a nil Rule only means "no
// change".
type UpdateNoteRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Category   *string   `json:"category"`
	Color      *string   `json:"color"`
	Visibility *string   `json:"visibility"`
	Year       *int      `json:"year"`
	Month      *int      `json:"month"`
	Day        *int      `json:"day"`
	Hour       *int      `json:"hour"`
	Minute     *int      `json:"minute"`
	AllDay     *bool     `json:"all_day"`
	Repeat     *string   `json:"repeat"`
	Interval   *int      `json:"interval"`
	Count      *int      `json:"repeat_count"`
	Rule       *RuleSpec `json:"rule"`
	ClearRule  bool      `json:"clear_rule,omitempty"`
}

// ListOptions control note listing.
type ListOptions struct {
	Page       int
	PerPage    int
	Category   string
	Visibility string
	IncludeGM  bool
}

// DefaultListOptions returns the standard pagination defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PerPage: 24, IncludeGM: true}
}

// Offset returns the SQL offset for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PerPage
}
