// Package calendars manages the authored calendar of a world: its months,
// weekdays, moons, and seasons, the master world clock, and the epoch sync
// snapshot. Each world has at most one calendar. The package persists the
// authored form and assembles the immutable engine schema on demand; all
// date math happens in internal/engine.
//
// Month and day indices are 0-based everywhere, including the HTTP API.
package calendars

import (
	"time"

	"github.com/keyxmakerx/almanac/internal/engine/moons"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/weather"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// Calendar is the persisted calendar of a world. Version increments on
// every schema-affecting change and is embedded in cache keys, so stale
// conversions age out of Redis without explicit invalidation. Clock
// changes do not bump the version.
type Calendar struct {
	ID      string `json:"id"`
	WorldID string `json:"world_id"`
	Name    string `json:"name"`
	Version int64  `json:"version"`

	// Schema settings consumed by the engine.
	Mode             string `json:"mode"` // "fantasy" or "reallife"
	YearZero         int    `json:"year_zero"`
	LeapInterval     int    `json:"leap_interval"`
	LeapOffset       int    `json:"leap_offset"`
	FirstWeekday     int    `json:"first_weekday"`
	ResetWeekdays    bool   `json:"reset_weekdays"`
	HoursPerDay      int    `json:"hours_per_day"`
	MinutesPerHour   int    `json:"minutes_per_hour"`
	SecondsPerMinute int    `json:"seconds_per_minute"`

	// Master world clock, in seconds since the calendar epoch. May be
	// negative for dates before year zero.
	CurrentTime int64 `json:"current_time"`

	// AdvanceRatio is game seconds per elapsed real second. 0 freezes the
	// clock; the real-time runner skips frozen calendars.
	AdvanceRatio float64 `json:"advance_ratio"`

	// LastRealTime is the wall-clock instant of the last clock write. The
	// real-time runner advances from here.
	LastRealTime time.Time `json:"last_real_time"`

	// Epoch sync snapshot. When enabled, conversions are offset so the
	// anchor's world time decodes to the anchor date and weekday.
	SyncEnabled   bool  `json:"sync_enabled"`
	SyncYear      int   `json:"sync_year,omitempty"`
	SyncMonth     int   `json:"sync_month,omitempty"`
	SyncDay       int   `json:"sync_day,omitempty"`
	SyncHour      int   `json:"sync_hour,omitempty"`
	SyncMinute    int   `json:"sync_minute,omitempty"`
	SyncSecond    int   `json:"sync_second,omitempty"`
	SyncWeekday   int   `json:"sync_weekday,omitempty"`
	SyncWorldTime int64 `json:"sync_world_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Months   []Month   `json:"months"`
	Weekdays []Weekday `json:"weekdays"`
	Moons    []Moon    `json:"moons"`
	Seasons  []Season  `json:"seasons"`
}

// Month is an authored month row. StartingWeekday pins the month's first
// day to a fixed weekday; Intercalary months sit outside the week cycle.
type Month struct {
	ID              int64  `json:"id"`
	CalendarID      string `json:"-"`
	Name            string `json:"name"`
	Days            int    `json:"days"`
	LeapDays        int    `json:"leap_days"`
	Intercalary     bool   `json:"intercalary"`
	StartingWeekday *int   `json:"starting_weekday,omitempty"`
	SortOrder       int    `json:"sort_order"`
}

// Weekday is an authored weekday name.
type Weekday struct {
	ID         int64  `json:"id"`
	CalendarID string `json:"-"`
	Name       string `json:"name"`
	SortOrder  int    `json:"sort_order"`
}

// Moon is an authored moon with its phase table.
type Moon struct {
	ID               int64       `json:"id"`
	CalendarID       string      `json:"-"`
	Name             string      `json:"name"`
	CycleLength      float64     `json:"cycle_length"`
	Offset           float64     `json:"offset"`
	FirstNewMoonYear int         `json:"first_new_moon_year"`
	FirstNewMoonMon  int         `json:"first_new_moon_month"`
	FirstNewMoonDay  int         `json:"first_new_moon_day"`
	Color            string      `json:"color,omitempty"`
	SortOrder        int         `json:"sort_order"`
	Phases           []MoonPhase `json:"phases"`
}

// MoonPhase is one entry in a moon's phase table. Length is in days.
type MoonPhase struct {
	ID        int64   `json:"id"`
	MoonID    int64   `json:"-"`
	Name      string  `json:"name"`
	Length    float64 `json:"length"`
	Icon      string  `json:"icon,omitempty"`
	SortOrder int     `json:"sort_order"`
}

// Season is an authored season with its climate profile for the weather
// resolver. Start/End are inclusive 0-based month/day positions; a season
// may wrap across the year boundary.
type Season struct {
	ID            int64   `json:"id"`
	CalendarID    string  `json:"-"`
	Name          string  `json:"name"`
	StartMonth    int     `json:"start_month"`
	StartDay      int     `json:"start_day"`
	EndMonth      int     `json:"end_month"`
	EndDay        int     `json:"end_day"`
	Color         string  `json:"color,omitempty"`
	BaseTempC     float64 `json:"base_temp_c"`
	TempVarianceC float64 `json:"temp_variance_c"`
	Humidity      float64 `json:"humidity"`
	SortOrder     int     `json:"sort_order"`
}

// EngineSchema assembles the immutable engine view of the calendar.
func (cal *Calendar) EngineSchema() *schema.Calendar {
	sc := &schema.Calendar{
		Mode:             cal.Mode,
		YearZero:         cal.YearZero,
		LeapInterval:     cal.LeapInterval,
		LeapOffset:       cal.LeapOffset,
		FirstWeekday:     cal.FirstWeekday,
		ResetWeekdays:    cal.ResetWeekdays,
		HoursPerDay:      cal.HoursPerDay,
		MinutesPerHour:   cal.MinutesPerHour,
		SecondsPerMinute: cal.SecondsPerMinute,
	}
	for _, m := range cal.Months {
		sc.Months = append(sc.Months, schema.Month{
			Name:            m.Name,
			Days:            m.Days,
			LeapDays:        m.LeapDays,
			Intercalary:     m.Intercalary,
			StartingWeekday: m.StartingWeekday,
		})
	}
	for _, w := range cal.Weekdays {
		sc.Weekdays = append(sc.Weekdays, w.Name)
	}
	for _, m := range cal.Moons {
		moon := schema.Moon{
			Name:        m.Name,
			CycleLength: m.CycleLength,
			Offset:      m.Offset,
			FirstNewMoon: schema.Date{
				Year:  m.FirstNewMoonYear,
				Month: m.FirstNewMoonMon,
				Day:   m.FirstNewMoonDay,
			},
			Color: m.Color,
		}
		for _, p := range m.Phases {
			moon.Phases = append(moon.Phases, schema.MoonPhase{
				Name:   p.Name,
				Length: p.Length,
				Icon:   p.Icon,
			})
		}
		sc.Moons = append(sc.Moons, moon)
	}
	for _, s := range cal.Seasons {
		sc.Seasons = append(sc.Seasons, schema.Season{
			Name:          s.Name,
			StartMonth:    s.StartMonth,
			StartDay:      s.StartDay,
			EndMonth:      s.EndMonth,
			EndDay:        s.EndDay,
			Color:         s.Color,
			BaseTempC:     s.BaseTempC,
			TempVarianceC: s.TempVarianceC,
			Humidity:      s.Humidity,
		})
	}
	return sc
}

// SyncAnchor returns the stored sync anchor, or nil when sync is disabled.
func (cal *Calendar) SyncAnchor() *worldtime.Anchor {
	if !cal.SyncEnabled {
		return nil
	}
	return &worldtime.Anchor{
		Date:      schema.Date{Year: cal.SyncYear, Month: cal.SyncMonth, Day: cal.SyncDay},
		Hour:      cal.SyncHour,
		Minute:    cal.SyncMinute,
		Second:    cal.SyncSecond,
		Weekday:   cal.SyncWeekday,
		WorldTime: cal.SyncWorldTime,
	}
}

// ClockState is the resolved view of a calendar's clock: the raw world
// time plus its decoded components and display names. This is the payload
// widgets poll for.
type ClockState struct {
	WorldTime   int64                `json:"world_time"`
	Components  worldtime.Components `json:"components"`
	MonthName   string               `json:"month_name,omitempty"`
	WeekdayName string               `json:"weekday_name,omitempty"`
}

// --- Service Input DTOs ---

// SettingsInput carries the top-level calendar settings for create, update,
// and full-definition apply. Zero time units default to 24/60/60.
type SettingsInput struct {
	Name             string  `json:"name" yaml:"name"`
	Mode             string  `json:"mode" yaml:"mode"`
	YearZero         int     `json:"year_zero" yaml:"year_zero"`
	LeapInterval     int     `json:"leap_interval" yaml:"leap_interval"`
	LeapOffset       int     `json:"leap_offset" yaml:"leap_offset"`
	FirstWeekday     int     `json:"first_weekday" yaml:"first_weekday"`
	ResetWeekdays    bool    `json:"reset_weekdays" yaml:"reset_weekdays"`
	HoursPerDay      int     `json:"hours_per_day" yaml:"hours_per_day"`
	MinutesPerHour   int     `json:"minutes_per_hour" yaml:"minutes_per_hour"`
	SecondsPerMinute int     `json:"seconds_per_minute" yaml:"seconds_per_minute"`
	CurrentTime      int64   `json:"current_time" yaml:"current_time"`
	AdvanceRatio     float64 `json:"advance_ratio" yaml:"advance_ratio"`
}

// MonthInput is the authored form of one month.
type MonthInput struct {
	Name            string `json:"name" yaml:"name"`
	Days            int    `json:"days" yaml:"days"`
	LeapDays        int    `json:"leap_days" yaml:"leap_days"`
	Intercalary     bool   `json:"intercalary" yaml:"intercalary"`
	StartingWeekday *int   `json:"starting_weekday" yaml:"starting_weekday"`
}

// WeekdayInput is the authored form of one weekday.
type WeekdayInput struct {
	Name string `json:"name" yaml:"name"`
}

// MoonPhaseInput is the authored form of one moon phase.
type MoonPhaseInput struct {
	Name   string  `json:"name" yaml:"name"`
	Length float64 `json:"length" yaml:"length"`
	Icon   string  `json:"icon" yaml:"icon"`
}

// MoonInput is the authored form of one moon.
type MoonInput struct {
	Name             string           `json:"name" yaml:"name"`
	CycleLength      float64          `json:"cycle_length" yaml:"cycle_length"`
	Offset           float64          `json:"offset" yaml:"offset"`
	FirstNewMoonYear int              `json:"first_new_moon_year" yaml:"first_new_moon_year"`
	FirstNewMoonMon  int              `json:"first_new_moon_month" yaml:"first_new_moon_month"`
	FirstNewMoonDay  int              `json:"first_new_moon_day" yaml:"first_new_moon_day"`
	Color            string           `json:"color" yaml:"color"`
	Phases           []MoonPhaseInput `json:"phases" yaml:"phases"`
}

// SeasonInput is the authored form of one season.
type SeasonInput struct {
	Name          string  `json:"name" yaml:"name"`
	StartMonth    int     `json:"start_month" yaml:"start_month"`
	StartDay      int     `json:"start_day" yaml:"start_day"`
	EndMonth      int     `json:"end_month" yaml:"end_month"`
	EndDay        int     `json:"end_day" yaml:"end_day"`
	Color         string  `json:"color" yaml:"color"`
	BaseTempC     float64 `json:"base_temp_c" yaml:"base_temp_c"`
	TempVarianceC float64 `json:"temp_variance_c" yaml:"temp_variance_c"`
	Humidity      float64 `json:"humidity" yaml:"humidity"`
}

// SyncInput is an epoch sync anchor as submitted by a client: a calendar
// date and time of day, the authoritative weekday for that date, and the
// world clock value observed at the same moment.
type SyncInput struct {
	Year      int   `json:"year"`
	Month     int   `json:"month"`
	Day       int   `json:"day"`
	Hour      int   `json:"hour"`
	Minute    int   `json:"minute"`
	Second    int   `json:"second"`
	Weekday   int   `json:"weekday"`
	WorldTime int64 `json:"world_time"`
}

// MoonPhaseView pairs a moon with its resolved phase for one day.
type MoonPhaseView struct {
	Moon  string      `json:"moon"`
	Color string      `json:"color,omitempty"`
	Phase moons.Phase `json:"phase"`
}

// WeatherView is a resolved daily weather report with its context.
type WeatherView struct {
	weather.Report
	Date   schema.Date `json:"date"`
	Season string      `json:"season,omitempty"`
}

// Definition is a complete authored calendar: settings plus all
// sub-resources. It is the exchange format for presets, import, and
// export.
type Definition struct {
	Settings SettingsInput  `json:"settings" yaml:"settings"`
	Months   []MonthInput   `json:"months" yaml:"months"`
	Weekdays []WeekdayInput `json:"weekdays" yaml:"weekdays"`
	Moons    []MoonInput    `json:"moons" yaml:"moons"`
	Seasons  []SeasonInput  `json:"seasons" yaml:"seasons"`
}

// EngineSchema assembles the engine schema a definition describes,
// without touching persistence. Values are taken as written; preset
// files are expected to be complete.
func (d Definition) EngineSchema() *schema.Calendar {
	cal := &Calendar{}
	applySettings(cal, d.Settings)
	cal.Months = monthRows("", d.Months)
	cal.Weekdays = weekdayRows("", d.Weekdays)
	cal.Moons = moonRows("", d.Moons)
	cal.Seasons = seasonRows("", d.Seasons)
	return cal.EngineSchema()
}

// PresetCatalog is the calendar preset source consumed by the apply
// endpoint. Implemented by internal/presets; declared here so calendars
// does not import it.
type PresetCatalog interface {
	// Definition returns the named preset, reporting whether it exists.
	Definition(name string) (Definition, bool)
	// Names lists available preset names in stable order.
	Names() []string
}

// Export converts a persisted calendar back to its definition form.
func (cal *Calendar) Export() Definition {
	def := Definition{
		Settings: SettingsInput{
			Name:             cal.Name,
			Mode:             cal.Mode,
			YearZero:         cal.YearZero,
			LeapInterval:     cal.LeapInterval,
			LeapOffset:       cal.LeapOffset,
			FirstWeekday:     cal.FirstWeekday,
			ResetWeekdays:    cal.ResetWeekdays,
			HoursPerDay:      cal.HoursPerDay,
			MinutesPerHour:   cal.MinutesPerHour,
			SecondsPerMinute: cal.SecondsPerMinute,
			CurrentTime:      cal.CurrentTime,
			AdvanceRatio:     cal.AdvanceRatio,
		},
	}
	for _, m := range cal.Months {
		def.Months = append(def.Months, MonthInput{
			Name:            m.Name,
			Days:            m.Days,
			LeapDays:        m.LeapDays,
			Intercalary:     m.Intercalary,
			StartingWeekday: m.StartingWeekday,
		})
	}
	for _, w := range cal.Weekdays {
		def.Weekdays = append(def.Weekdays, WeekdayInput{Name: w.Name})
	}
	for _, m := range cal.Moons {
		moon := MoonInput{
			Name:             m.Name,
			CycleLength:      m.CycleLength,
			Offset:           m.Offset,
			FirstNewMoonYear: m.FirstNewMoonYear,
			FirstNewMoonMon:  m.FirstNewMoonMon,
			FirstNewMoonDay:  m.FirstNewMoonDay,
			Color:            m.Color,
		}
		for _, p := range m.Phases {
			moon.Phases = append(moon.Phases, MoonPhaseInput{Name: p.Name, Length: p.Length, Icon: p.Icon})
		}
		def.Moons = append(def.Moons, moon)
	}
	for _, s := range cal.Seasons {
		def.Seasons = append(def.Seasons, SeasonInput{
			Name:          s.Name,
			StartMonth:    s.StartMonth,
			StartDay:      s.StartDay,
			EndMonth:      s.EndMonth,
			EndDay:        s.EndDay,
			Color:         s.Color,
			BaseTempC:     s.BaseTempC,
			TempVarianceC: s.TempVarianceC,
			Humidity:      s.Humidity,
		})
	}
	return def
}
