package calendars

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/keyxmakerx/almanac/internal/apperror"
	"github.com/keyxmakerx/almanac/internal/engine/moons"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/weather"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

const (
	maxNameLength = 200
	maxMonths     = 100
	maxWeekdays   = 50
	maxMoons      = 20
	maxSeasons    = 50
	maxPhases     = 50
	maxMonthDays  = 1000
	maxTimeUnit   = 10000
)

// ConversionCache is the read-through cache consumed by conversion-heavy
// queries. Implemented by internal/cache; the passthrough used in tests
// just invokes the resolver.
type ConversionCache interface {
	Components(ctx context.Context, calendarID string, version int64, worldTime int64, resolve func() worldtime.Components) (worldtime.Components, bool)
	MoonPhase(ctx context.Context, calendarID string, version int64, moonIdx int, dayOrdinal int64, resolve func() *moons.Phase) (*moons.Phase, bool)
}

// CalendarService defines business logic for the calendars plugin. All
// operations are keyed by world ID since each world has at most one
// calendar.
type CalendarService interface {
	// Calendar CRUD.
	Create(ctx context.Context, worldID string, input SettingsInput) (*Calendar, error)
	GetByWorld(ctx context.Context, worldID string) (*Calendar, error)
	UpdateSettings(ctx context.Context, worldID string, input SettingsInput) (*Calendar, error)
	Delete(ctx context.Context, worldID string) error

	// Full-definition replace, used by presets and import.
	ApplyDefinition(ctx context.Context, worldID string, def Definition) (*Calendar, error)

	// Sub-resource bulk updates (replace all).
	SetMonths(ctx context.Context, worldID string, months []MonthInput) (*Calendar, error)
	SetWeekdays(ctx context.Context, worldID string, weekdays []WeekdayInput) (*Calendar, error)
	SetMoons(ctx context.Context, worldID string, moons []MoonInput) (*Calendar, error)
	SetSeasons(ctx context.Context, worldID string, seasons []SeasonInput) (*Calendar, error)

	// Clock.
	Clock(ctx context.Context, worldID string) (*ClockState, error)
	SetClock(ctx context.Context, worldID string, worldTime int64) (*ClockState, error)
	SetClockDate(ctx context.Context, worldID string, comps worldtime.Components) (*ClockState, error)
	Advance(ctx context.Context, worldID string, seconds int64, days int) (*ClockState, error)

	// Conversions.
	ToComponents(ctx context.Context, worldID string, worldTime int64) (worldtime.Components, error)
	FromComponents(ctx context.Context, worldID string, comps worldtime.Components) (int64, error)

	// Derived queries. A nil `at` means the current clock.
	MoonPhases(ctx context.Context, worldID string, at *int64) ([]MoonPhaseView, error)
	SeasonAt(ctx context.Context, worldID string, at *int64) (*Season, error)
	WeatherAt(ctx context.Context, worldID string, seed int64, at *int64) (*WeatherView, error)

	// Epoch sync.
	EnableSync(ctx context.Context, worldID string, input SyncInput) (*Calendar, error)
	DisableSync(ctx context.Context, worldID string) (*Calendar, error)

	// Converter returns the assembled engine converter plus the loaded
	// calendar, for plugins that do their own date math.
	Converter(ctx context.Context, worldID string) (*worldtime.Converter, *Calendar, error)
}

// calendarService is the default CalendarService implementation.
type calendarService struct {
	repo  CalendarRepository
	cache ConversionCache
}

// NewCalendarService creates a CalendarService backed by the given
// repository and conversion cache.
func NewCalendarService(repo CalendarRepository, cache ConversionCache) CalendarService {
	return &calendarService{repo: repo, cache: cache}
}

// Create creates a new calendar for a world. Only one per world.
func (s *calendarService) Create(ctx context.Context, worldID string, input SettingsInput) (*Calendar, error) {
	existing, err := s.repo.FindByWorld(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("check existing calendar: %w", err)
	}
	if existing != nil {
		return nil, apperror.NewConflict("world already has a calendar")
	}

	if err := sanitizeSettings(&input); err != nil {
		return nil, err
	}

	cal := &Calendar{
		ID:      uuid.NewString(),
		WorldID: worldID,
	}
	applySettings(cal, input)
	cal.CurrentTime = input.CurrentTime

	if err := s.repo.Create(ctx, cal); err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	slog.Info("calendar created", "calendar_id", cal.ID, "world_id", worldID)
	return s.getFull(ctx, worldID)
}

// GetByWorld returns the full calendar for a world with all sub-resources.
func (s *calendarService) GetByWorld(ctx context.Context, worldID string) (*Calendar, error) {
	return s.getFull(ctx, worldID)
}

// UpdateSettings updates the top-level calendar settings. The clock and
// sync snapshot are untouched; the version bumps.
func (s *calendarService) UpdateSettings(ctx context.Context, worldID string, input SettingsInput) (*Calendar, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := sanitizeSettings(&input); err != nil {
		return nil, err
	}

	applySettings(cal, input)
	if err := s.repo.UpdateSettings(ctx, cal); err != nil {
		return nil, fmt.Errorf("update calendar: %w", err)
	}
	slog.Info("calendar settings updated", "calendar_id", cal.ID, "world_id", worldID)
	return s.getFull(ctx, worldID)
}

// Delete removes a world's calendar and all its data.
func (s *calendarService) Delete(ctx context.Context, worldID string) error {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cal.ID); err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	slog.Info("calendar deleted", "calendar_id", cal.ID, "world_id", worldID)
	return nil
}

// ApplyDefinition replaces the world's entire calendar with the given
// definition, creating it if absent. The definition is validated as a
// whole against the engine before anything is written, and the clock is
// reset to the definition's starting time.
func (s *calendarService) ApplyDefinition(ctx context.Context, worldID string, def Definition) (*Calendar, error) {
	if err := sanitizeSettings(&def.Settings); err != nil {
		return nil, err
	}
	if err := validateMonths(def.Months); err != nil {
		return nil, err
	}
	if err := validateWeekdays(def.Weekdays); err != nil {
		return nil, err
	}
	if err := validateMoons(def.Moons); err != nil {
		return nil, err
	}
	if err := validateSeasons(def.Seasons); err != nil {
		return nil, err
	}

	if err := def.EngineSchema().Validate(); err != nil {
		return nil, apperror.NewValidation("invalid calendar definition: " + err.Error())
	}

	cal, err := s.repo.FindByWorld(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("check existing calendar: %w", err)
	}
	if cal == nil {
		cal = &Calendar{ID: uuid.NewString(), WorldID: worldID}
		applySettings(cal, def.Settings)
		cal.CurrentTime = def.Settings.CurrentTime
		if err := s.repo.Create(ctx, cal); err != nil {
			return nil, fmt.Errorf("create calendar: %w", err)
		}
	} else {
		applySettings(cal, def.Settings)
		if err := s.repo.UpdateSettings(ctx, cal); err != nil {
			return nil, fmt.Errorf("update calendar: %w", err)
		}
		if err := s.repo.SetClock(ctx, cal.ID, def.Settings.CurrentTime); err != nil {
			return nil, fmt.Errorf("set clock: %w", err)
		}
	}

	if err := s.repo.SetMonths(ctx, cal.ID, monthRows(cal.ID, def.Months)); err != nil {
		return nil, fmt.Errorf("set months: %w", err)
	}
	if err := s.repo.SetWeekdays(ctx, cal.ID, weekdayRows(cal.ID, def.Weekdays)); err != nil {
		return nil, fmt.Errorf("set weekdays: %w", err)
	}
	if err := s.repo.SetMoons(ctx, cal.ID, moonRows(cal.ID, def.Moons)); err != nil {
		return nil, fmt.Errorf("set moons: %w", err)
	}
	if err := s.repo.SetSeasons(ctx, cal.ID, seasonRows(cal.ID, def.Seasons)); err != nil {
		return nil, fmt.Errorf("set seasons: %w", err)
	}

	slog.Info("calendar definition applied", "calendar_id", cal.ID, "world_id", worldID,
		"name", def.Settings.Name, "months", len(def.Months))
	return s.getFull(ctx, worldID)
}

// SetMonths replaces all months.
func (s *calendarService) SetMonths(ctx context.Context, worldID string, months []MonthInput) (*Calendar, error) {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := validateMonths(months); err != nil {
		return nil, err
	}
	if err := s.repo.SetMonths(ctx, cal.ID, monthRows(cal.ID, months)); err != nil {
		return nil, fmt.Errorf("set months: %w", err)
	}
	slog.Info("calendar months replaced", "calendar_id", cal.ID, "count", len(months))
	return s.getFull(ctx, worldID)
}

// SetWeekdays replaces all weekdays.
func (s *calendarService) SetWeekdays(ctx context.Context, worldID string, weekdays []WeekdayInput) (*Calendar, error) {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := validateWeekdays(weekdays); err != nil {
		return nil, err
	}
	if err := s.repo.SetWeekdays(ctx, cal.ID, weekdayRows(cal.ID, weekdays)); err != nil {
		return nil, fmt.Errorf("set weekdays: %w", err)
	}
	slog.Info("calendar weekdays replaced", "calendar_id", cal.ID, "count", len(weekdays))
	return s.getFull(ctx, worldID)
}

// SetMoons replaces all moons and their phase tables.
func (s *calendarService) SetMoons(ctx context.Context, worldID string, input []MoonInput) (*Calendar, error) {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := validateMoons(input); err != nil {
		return nil, err
	}
	if err := s.repo.SetMoons(ctx, cal.ID, moonRows(cal.ID, input)); err != nil {
		return nil, fmt.Errorf("set moons: %w", err)
	}
	slog.Info("calendar moons replaced", "calendar_id", cal.ID, "count", len(input))
	return s.getFull(ctx, worldID)
}

// SetSeasons replaces all seasons.
func (s *calendarService) SetSeasons(ctx context.Context, worldID string, input []SeasonInput) (*Calendar, error) {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := validateSeasons(input); err != nil {
		return nil, err
	}
	if err := s.repo.SetSeasons(ctx, cal.ID, seasonRows(cal.ID, input)); err != nil {
		return nil, fmt.Errorf("set seasons: %w", err)
	}
	slog.Info("calendar seasons replaced", "calendar_id", cal.ID, "count", len(input))
	return s.getFull(ctx, worldID)
}

// Clock returns the resolved clock state for a world.
func (s *calendarService) Clock(ctx context.Context, worldID string) (*ClockState, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	return s.clockState(ctx, cal, cal.CurrentTime), nil
}

// SetClock sets the world clock to an absolute second count.
func (s *calendarService) SetClock(ctx context.Context, worldID string, worldTime int64) (*ClockState, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetClock(ctx, cal.ID, worldTime); err != nil {
		return nil, fmt.Errorf("set clock: %w", err)
	}
	slog.Info("clock set", "calendar_id", cal.ID, "world_time", worldTime)
	return s.clockState(ctx, cal, worldTime), nil
}

// SetClockDate sets the world clock from calendar components.
func (s *calendarService) SetClockDate(ctx context.Context, worldID string, comps worldtime.Components) (*ClockState, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := cal.EngineSchema()
	if err := sc.Validate(); err != nil {
		return nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}
	if comps.Month < 0 || comps.Month >= len(sc.Months) {
		return nil, apperror.NewValidation("month index out of range")
	}
	if comps.Day < 0 || comps.Day >= sc.MonthDays(comps.Month, comps.Year) {
		return nil, apperror.NewValidation("day index out of range")
	}

	worldTime := converterFor(cal).FromComponents(comps)
	if err := s.repo.SetClock(ctx, cal.ID, worldTime); err != nil {
		return nil, fmt.Errorf("set clock: %w", err)
	}
	slog.Info("clock set", "calendar_id", cal.ID, "world_time", worldTime)
	return s.clockState(ctx, cal, worldTime), nil
}

// Advance shifts the world clock by the given seconds plus whole days.
// Negative values rewind.
func (s *calendarService) Advance(ctx context.Context, worldID string, seconds int64, days int) (*ClockState, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	delta := seconds + int64(days)*cal.EngineSchema().SecondsPerDay()
	newTime, err := s.repo.AdvanceClock(ctx, cal.ID, delta)
	if err != nil {
		return nil, fmt.Errorf("advance clock: %w", err)
	}
	slog.Info("clock advanced", "calendar_id", cal.ID, "delta", delta, "world_time", newTime)
	return s.clockState(ctx, cal, newTime), nil
}

// ToComponents converts a world time to calendar components.
func (s *calendarService) ToComponents(ctx context.Context, worldID string, worldTime int64) (worldtime.Components, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return worldtime.Components{}, err
	}
	if err := cal.EngineSchema().Validate(); err != nil {
		return worldtime.Components{}, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}
	return s.components(ctx, cal, worldTime), nil
}

// FromComponents converts calendar components to a world time.
func (s *calendarService) FromComponents(ctx context.Context, worldID string, comps worldtime.Components) (int64, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return 0, err
	}
	if err := cal.EngineSchema().Validate(); err != nil {
		return 0, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}
	return converterFor(cal).FromComponents(comps), nil
}

// MoonPhases resolves every configured moon's phase at the given time.
// Moons with incomplete configuration are skipped.
func (s *calendarService) MoonPhases(ctx context.Context, worldID string, at *int64) ([]MoonPhaseView, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := cal.EngineSchema()
	if err := sc.Validate(); err != nil {
		return nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}

	worldTime := cal.CurrentTime
	if at != nil {
		worldTime = *at
	}
	conv := converterFor(cal)
	comps := s.components(ctx, cal, worldTime)
	ordinal := conv.DayOrdinal(comps.Year, comps.Month, comps.Day)

	views := make([]MoonPhaseView, 0, len(sc.Moons))
	for i := range sc.Moons {
		moon := &sc.Moons[i]
		phase, _ := s.cache.MoonPhase(ctx, cal.ID, cal.Version, i, ordinal, func() *moons.Phase {
			return moons.Current(worldTime, moon, conv)
		})
		if phase == nil {
			continue
		}
		views = append(views, MoonPhaseView{
			Moon:  cal.Moons[i].Name,
			Color: cal.Moons[i].Color,
			Phase: *phase,
		})
	}
	return views, nil
}

// SeasonAt returns the season covering the given time, or nil when no
// season does.
func (s *calendarService) SeasonAt(ctx context.Context, worldID string, at *int64) (*Season, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := cal.EngineSchema()
	if err := sc.Validate(); err != nil {
		return nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}

	worldTime := cal.CurrentTime
	if at != nil {
		worldTime = *at
	}
	comps := s.components(ctx, cal, worldTime)
	for i := range sc.Seasons {
		if sc.Seasons[i].ContainsDate(comps.Month, comps.Day) {
			return &cal.Seasons[i], nil
		}
	}
	return nil, nil
}

// WeatherAt resolves the deterministic daily weather at the given time.
// The seed is the owning world's seed, so the same world and day always
// produce the same report.
func (s *calendarService) WeatherAt(ctx context.Context, worldID string, seed int64, at *int64) (*WeatherView, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := cal.EngineSchema()
	if err := sc.Validate(); err != nil {
		return nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}

	worldTime := cal.CurrentTime
	if at != nil {
		worldTime = *at
	}
	conv := converterFor(cal)
	comps := s.components(ctx, cal, worldTime)
	ordinal := conv.DayOrdinal(comps.Year, comps.Month, comps.Day)
	season := sc.SeasonForDate(comps.Month, comps.Day)

	view := &WeatherView{
		Report: weather.Daily(seed, ordinal, season),
		Date:   comps.Date(),
	}
	if season != nil {
		view.Season = season.Name
	}
	return view, nil
}

// EnableSync stores the sync anchor after checking it against the schema.
func (s *calendarService) EnableSync(ctx context.Context, worldID string, input SyncInput) (*Calendar, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := cal.EngineSchema()
	if err := sc.Validate(); err != nil {
		return nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}
	if input.Month < 0 || input.Month >= len(sc.Months) {
		return nil, apperror.NewValidation("anchor month out of range")
	}
	if input.Day < 0 || input.Day >= sc.MonthDays(input.Month, input.Year) {
		return nil, apperror.NewValidation("anchor day out of range")
	}
	if input.Weekday < 0 || input.Weekday >= sc.WeekLength() {
		return nil, apperror.NewValidation("anchor weekday out of range")
	}

	cal.SyncEnabled = true
	cal.SyncYear = input.Year
	cal.SyncMonth = input.Month
	cal.SyncDay = input.Day
	cal.SyncHour = input.Hour
	cal.SyncMinute = input.Minute
	cal.SyncSecond = input.Second
	cal.SyncWeekday = input.Weekday
	cal.SyncWorldTime = input.WorldTime
	if err := s.repo.SetSync(ctx, cal); err != nil {
		return nil, fmt.Errorf("set sync: %w", err)
	}
	slog.Info("calendar sync enabled", "calendar_id", cal.ID, "world_id", worldID)
	return s.getFull(ctx, worldID)
}

// DisableSync clears the sync anchor.
func (s *calendarService) DisableSync(ctx context.Context, worldID string) (*Calendar, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, err
	}
	cal.SyncEnabled = false
	cal.SyncYear, cal.SyncMonth, cal.SyncDay = 0, 0, 0
	cal.SyncHour, cal.SyncMinute, cal.SyncSecond = 0, 0, 0
	cal.SyncWeekday = 0
	cal.SyncWorldTime = 0
	if err := s.repo.SetSync(ctx, cal); err != nil {
		return nil, fmt.Errorf("set sync: %w", err)
	}
	slog.Info("calendar sync disabled", "calendar_id", cal.ID, "world_id", worldID)
	return s.getFull(ctx, worldID)
}

// Converter returns the assembled engine converter and the loaded
// calendar for a world.
func (s *calendarService) Converter(ctx context.Context, worldID string) (*worldtime.Converter, *Calendar, error) {
	cal, err := s.getFull(ctx, worldID)
	if err != nil {
		return nil, nil, err
	}
	if err := cal.EngineSchema().Validate(); err != nil {
		return nil, nil, apperror.NewValidation("calendar schema is incomplete: " + err.Error())
	}
	return converterFor(cal), cal, nil
}

// find returns the bare calendar row for a world or a not-found error.
func (s *calendarService) find(ctx context.Context, worldID string) (*Calendar, error) {
	cal, err := s.repo.FindByWorld(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	if cal == nil {
		return nil, apperror.NewNotFound("world has no calendar")
	}
	return cal, nil
}

// getFull returns the calendar for a world with all sub-resources loaded.
func (s *calendarService) getFull(ctx context.Context, worldID string) (*Calendar, error) {
	cal, err := s.find(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if cal.Months, err = s.repo.GetMonths(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get months: %w", err)
	}
	if cal.Weekdays, err = s.repo.GetWeekdays(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get weekdays: %w", err)
	}
	if cal.Moons, err = s.repo.GetMoons(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get moons: %w", err)
	}
	if cal.Seasons, err = s.repo.GetSeasons(ctx, cal.ID); err != nil {
		return nil, fmt.Errorf("get seasons: %w", err)
	}
	return cal, nil
}

// components resolves a world time through the read-through cache.
func (s *calendarService) components(ctx context.Context, cal *Calendar, worldTime int64) worldtime.Components {
	comps, _ := s.cache.Components(ctx, cal.ID, cal.Version, worldTime, func() worldtime.Components {
		return converterFor(cal).ToComponents(worldTime)
	})
	return comps
}

// clockState resolves a world time into the display payload widgets poll.
func (s *calendarService) clockState(ctx context.Context, cal *Calendar, worldTime int64) *ClockState {
	state := &ClockState{WorldTime: worldTime}
	if cal.EngineSchema().Validate() != nil {
		return state
	}
	state.Components = s.components(ctx, cal, worldTime)
	if state.Components.Month >= 0 && state.Components.Month < len(cal.Months) {
		state.MonthName = cal.Months[state.Components.Month].Name
	}
	if state.Components.DayOfWeek >= 0 && state.Components.DayOfWeek < len(cal.Weekdays) {
		state.WeekdayName = cal.Weekdays[state.Components.DayOfWeek].Name
	}
	return state
}

// converterFor assembles the engine converter for a calendar, recomputing
// the sync state from the stored anchor when sync is enabled.
func converterFor(cal *Calendar) *worldtime.Converter {
	sc := cal.EngineSchema()
	var sync *worldtime.SyncState
	if anchor := cal.SyncAnchor(); anchor != nil {
		st := worldtime.ComputeSync(sc, *anchor)
		sync = &st
	}
	return worldtime.NewConverter(sc, sync)
}

// applySettings copies sanitized settings onto a calendar. The clock is
// deliberately not copied; clock writes go through SetClock.
func applySettings(cal *Calendar, input SettingsInput) {
	cal.Name = input.Name
	cal.Mode = input.Mode
	cal.YearZero = input.YearZero
	cal.LeapInterval = input.LeapInterval
	cal.LeapOffset = input.LeapOffset
	cal.FirstWeekday = input.FirstWeekday
	cal.ResetWeekdays = input.ResetWeekdays
	cal.HoursPerDay = input.HoursPerDay
	cal.MinutesPerHour = input.MinutesPerHour
	cal.SecondsPerMinute = input.SecondsPerMinute
	cal.AdvanceRatio = input.AdvanceRatio
}

// sanitizeSettings fills defaults and validates the top-level settings.
func sanitizeSettings(input *SettingsInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		input.Name = "World Calendar"
	}
	if len(input.Name) > maxNameLength {
		return apperror.NewValidation(fmt.Sprintf("name cannot exceed %d characters", maxNameLength))
	}
	if input.Mode == "" {
		input.Mode = schema.ModeFantasy
	}
	if input.Mode != schema.ModeFantasy && input.Mode != schema.ModeRealLife {
		return apperror.NewValidation("mode must be 'fantasy' or 'reallife'")
	}
	if input.HoursPerDay == 0 {
		input.HoursPerDay = 24
	}
	if input.MinutesPerHour == 0 {
		input.MinutesPerHour = 60
	}
	if input.SecondsPerMinute == 0 {
		input.SecondsPerMinute = 60
	}
	for _, u := range []struct {
		name  string
		value int
	}{
		{"hours_per_day", input.HoursPerDay},
		{"minutes_per_hour", input.MinutesPerHour},
		{"seconds_per_minute", input.SecondsPerMinute},
	} {
		if u.value < 1 || u.value > maxTimeUnit {
			return apperror.NewValidation(fmt.Sprintf("%s must be between 1 and %d", u.name, maxTimeUnit))
		}
	}
	if input.LeapInterval < 0 {
		return apperror.NewValidation("leap_interval cannot be negative")
	}
	if input.FirstWeekday < 0 {
		return apperror.NewValidation("first_weekday cannot be negative")
	}
	if input.AdvanceRatio < 0 {
		return apperror.NewValidation("advance_ratio cannot be negative")
	}
	return nil
}

// validateMonths checks the authored month list.
func validateMonths(months []MonthInput) error {
	if len(months) == 0 {
		return apperror.NewValidation("calendar must have at least one month")
	}
	if len(months) > maxMonths {
		return apperror.NewValidation(fmt.Sprintf("calendar cannot have more than %d months", maxMonths))
	}
	for i, m := range months {
		if strings.TrimSpace(m.Name) == "" {
			return apperror.NewValidation(fmt.Sprintf("month %d: name is required", i+1))
		}
		if m.Days < 1 || m.Days > maxMonthDays {
			return apperror.NewValidation(fmt.Sprintf("month %q: days must be between 1 and %d", m.Name, maxMonthDays))
		}
		if m.LeapDays < 0 {
			return apperror.NewValidation(fmt.Sprintf("month %q: leap_days cannot be negative", m.Name))
		}
		if m.StartingWeekday != nil && *m.StartingWeekday < 0 {
			return apperror.NewValidation(fmt.Sprintf("month %q: starting_weekday cannot be negative", m.Name))
		}
	}
	return nil
}

// validateWeekdays checks the authored weekday list.
func validateWeekdays(weekdays []WeekdayInput) error {
	if len(weekdays) == 0 {
		return apperror.NewValidation("calendar must have at least one weekday")
	}
	if len(weekdays) > maxWeekdays {
		return apperror.NewValidation(fmt.Sprintf("calendar cannot have more than %d weekdays", maxWeekdays))
	}
	for i, w := range weekdays {
		if strings.TrimSpace(w.Name) == "" {
			return apperror.NewValidation(fmt.Sprintf("weekday %d: name is required", i+1))
		}
	}
	return nil
}

// validateMoons checks the authored moon list.
func validateMoons(input []MoonInput) error {
	if len(input) > maxMoons {
		return apperror.NewValidation(fmt.Sprintf("calendar cannot have more than %d moons", maxMoons))
	}
	for i, m := range input {
		if strings.TrimSpace(m.Name) == "" {
			return apperror.NewValidation(fmt.Sprintf("moon %d: name is required", i+1))
		}
		if m.CycleLength <= 0 {
			return apperror.NewValidation(fmt.Sprintf("moon %q: cycle_length must be positive", m.Name))
		}
		if len(m.Phases) > maxPhases {
			return apperror.NewValidation(fmt.Sprintf("moon %q: cannot have more than %d phases", m.Name, maxPhases))
		}
		for j, p := range m.Phases {
			if strings.TrimSpace(p.Name) == "" {
				return apperror.NewValidation(fmt.Sprintf("moon %q: phase %d: name is required", m.Name, j+1))
			}
			if p.Length < 0 {
				return apperror.NewValidation(fmt.Sprintf("moon %q: phase %q: length cannot be negative", m.Name, p.Name))
			}
		}
	}
	return nil
}

// validateSeasons checks the authored season list.
func validateSeasons(input []SeasonInput) error {
	if len(input) > maxSeasons {
		return apperror.NewValidation(fmt.Sprintf("calendar cannot have more than %d seasons", maxSeasons))
	}
	for i, s := range input {
		if strings.TrimSpace(s.Name) == "" {
			return apperror.NewValidation(fmt.Sprintf("season %d: name is required", i+1))
		}
		if s.StartMonth < 0 || s.StartDay < 0 || s.EndMonth < 0 || s.EndDay < 0 {
			return apperror.NewValidation(fmt.Sprintf("season %q: month and day positions cannot be negative", s.Name))
		}
		if s.Humidity < 0 || s.Humidity > 1 {
			return apperror.NewValidation(fmt.Sprintf("season %q: humidity must be between 0 and 1", s.Name))
		}
		if s.TempVarianceC < 0 {
			return apperror.NewValidation(fmt.Sprintf("season %q: temp_variance_c cannot be negative", s.Name))
		}
	}
	return nil
}

// monthRows converts month inputs to rows with positional sort order.
func monthRows(calendarID string, input []MonthInput) []Month {
	rows := make([]Month, 0, len(input))
	for i, m := range input {
		rows = append(rows, Month{
			CalendarID:      calendarID,
			Name:            strings.TrimSpace(m.Name),
			Days:            m.Days,
			LeapDays:        m.LeapDays,
			Intercalary:     m.Intercalary,
			StartingWeekday: m.StartingWeekday,
			SortOrder:       i,
		})
	}
	return rows
}

// weekdayRows converts weekday inputs to rows with positional sort order.
func weekdayRows(calendarID string, input []WeekdayInput) []Weekday {
	rows := make([]Weekday, 0, len(input))
	for i, w := range input {
		rows = append(rows, Weekday{
			CalendarID: calendarID,
			Name:       strings.TrimSpace(w.Name),
			SortOrder:  i,
		})
	}
	return rows
}

// moonRows converts moon inputs to rows with positional sort order.
func moonRows(calendarID string, input []MoonInput) []Moon {
	rows := make([]Moon, 0, len(input))
	for i, m := range input {
		moon := Moon{
			CalendarID:       calendarID,
			Name:             strings.TrimSpace(m.Name),
			CycleLength:      m.CycleLength,
			Offset:           m.Offset,
			FirstNewMoonYear: m.FirstNewMoonYear,
			FirstNewMoonMon:  m.FirstNewMoonMon,
			FirstNewMoonDay:  m.FirstNewMoonDay,
			Color:            m.Color,
			SortOrder:        i,
		}
		for j, p := range m.Phases {
			moon.Phases = append(moon.Phases, MoonPhase{
				Name:      strings.TrimSpace(p.Name),
				Length:    p.Length,
				Icon:      p.Icon,
				SortOrder: j,
			})
		}
		rows = append(rows, moon)
	}
	return rows
}

// seasonRows converts season inputs to rows with positional sort order.
func seasonRows(calendarID string, input []SeasonInput) []Season {
	rows := make([]Season, 0, len(input))
	for i, s := range input {
		rows = append(rows, Season{
			CalendarID:    calendarID,
			Name:          strings.TrimSpace(s.Name),
			StartMonth:    s.StartMonth,
			StartDay:      s.StartDay,
			EndMonth:      s.EndMonth,
			EndDay:        s.EndDay,
			Color:         s.Color,
			BaseTempC:     s.BaseTempC,
			TempVarianceC: s.TempVarianceC,
			Humidity:      s.Humidity,
			SortOrder:     i,
		})
	}
	return rows
}
