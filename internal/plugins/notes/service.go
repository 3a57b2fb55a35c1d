package notes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/keyxmakerx/almanac/internal/apperror"
	"github.com/keyxmakerx/almanac/internal/engine/recurrence"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
)

const (
	maxTitleLength    = 200
	maxContentLength  = 100000
	maxCategoryLength = 100
	maxColorLength    = 32
	maxInterval       = 10000

	defaultHorizonDays = 30
	maxHorizonDays     = 366
	defaultUpcoming    = 50
	maxUpcoming        = 200
)

// CalendarSource supplies the assembled converter and calendar for a
// world. Satisfied by the calendars service.
type CalendarSource interface {
	Converter(ctx context.Context, worldID string) (*worldtime.Converter, *calendars.Calendar, error)
}

// NoteService defines the business logic contract for calendar notes.
type NoteService interface {
	Create(ctx context.Context, worldID string, req CreateNoteRequest) (*Note, error)
	Get(ctx context.Context, worldID, id string) (*Note, error)
	Update(ctx context.Context, worldID, id string, req UpdateNoteRequest) (*Note, error)
	Delete(ctx context.Context, worldID, id string) error
	List(ctx context.Context, worldID string, opts ListOptions) ([]Note, int, error)

	// OnDate returns all notes falling on the given date, recurrences
	// included.
	OnDate(ctx context.Context, worldID string, date schema.Date, includeGM bool) ([]Note, error)

	// Month resolves the per-day note layout for one month.
	Month(ctx context.Context, worldID string, year, month int, includeGM bool) (*MonthGrid, error)

	// Upcoming scans forward from the world clock and returns the next
	// occurrences within the horizon.
	Upcoming(ctx context.Context, worldID string, horizonDays, limit int, includeGM bool) ([]Occurrence, error)
}

// noteService is the default NoteService implementation.
type noteService struct {
	repo      NoteRepository
	calendars CalendarSource
}

// NewNoteService creates a NoteService backed by the given repository and
// calendar source.
func NewNoteService(repo NoteRepository, calendars CalendarSource) NoteService {
	return &noteService{repo: repo, calendars: calendars}
}

// Create validates and persists a new note.
func (s *noteService) Create(ctx context.Context, worldID string, req CreateNoteRequest) (*Note, error) {
	note := &Note{
		ID:          uuid.NewString(),
		WorldID:     worldID,
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		Color:       req.Color,
		Visibility:  req.Visibility,
		Year:        req.Year,
		Month:       req.Month,
		Day:         req.Day,
		Hour:        req.Hour,
		Minute:      req.Minute,
		AllDay:      req.AllDay,
		Repeat:      req.Repeat,
		Interval:    req.Interval,
		RepeatCount: req.Count,
		Rule:        req.Rule,
	}
	if err := s.sanitize(ctx, note); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	slog.Info("note created", "note_id", note.ID, "world_id", worldID, "title", note.Title)
	return s.repo.FindByID(ctx, note.ID)
}

// Get returns a note, hiding notes that belong to other worlds.
func (s *noteService) Get(ctx context.Context, worldID, id string) (*Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.WorldID != worldID {
		return nil, apperror.NewNotFound("note not found")
	}
	return note, nil
}

// Update applies partial updates to a note and re-validates the result.
func (s *noteService) Update(ctx context.Context, worldID, id string, req UpdateNoteRequest) (*Note, error) {
	note, err := s.Get(ctx, worldID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Category != nil {
		note.Category = *req.Category
	}
	if req.Color != nil {
		note.Color = *req.Color
	}
	if req.Visibility != nil {
		note.Visibility = *req.Visibility
	}
	if req.Year != nil {
		note.Year = *req.Year
	}
	if req.Month != nil {
		note.Month = *req.Month
	}
	if req.Day != nil {
		note.Day = *req.Day
	}
	if req.Hour != nil {
		note.Hour = *req.Hour
	}
	if req.Minute != nil {
		note.Minute = *req.Minute
	}
	if req.AllDay != nil {
		note.AllDay = *req.AllDay
	}
	if req.Repeat != nil {
		note.Repeat = *req.Repeat
	}
	if req.Interval != nil {
		note.Interval = *req.Interval
	}
	if req.Count != nil {
		note.RepeatCount = *req.Count
	}
	if req.Rule != nil {
		note.Rule = req.Rule
	}
	if req.ClearRule {
		note.Rule = nil
	}

	if err := s.sanitize(ctx, note); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return s.repo.FindByID(ctx, note.ID)
}

// Delete removes a note.
func (s *noteService) Delete(ctx context.Context, worldID, id string) error {
	if _, err := s.Get(ctx, worldID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	slog.Info("note deleted", "note_id", id, "world_id", worldID)
	return nil
}

// List returns a page of notes.
func (s *noteService) List(ctx context.Context, worldID string, opts ListOptions) ([]Note, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 || opts.PerPage > 100 {
		opts.PerPage = 24
	}
	if opts.Visibility != "" && opts.Visibility != VisibilityEveryone && opts.Visibility != VisibilityGMOnly {
		return nil, 0, apperror.NewValidation("visibility must be 'everyone' or 'gm_only'")
	}
	return s.repo.List(ctx, worldID, opts)
}

// OnDate returns all notes falling on the given date.
func (s *noteService) OnDate(ctx context.Context, worldID string, date schema.Date, includeGM bool) ([]Note, error) {
	conv, _, err := s.calendars.Converter(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := conv.Schema()
	if date.Month < 0 || date.Month >= len(sc.Months) {
		return nil, apperror.NewValidation("month index out of range")
	}
	if date.Day < 0 || date.Day >= sc.MonthDays(date.Month, date.Year) {
		return nil, apperror.NewValidation("day index out of range")
	}

	all, err := s.repo.ListAll(ctx, worldID, includeGM)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	ev := recurrence.NewEvaluator(conv)
	hits := []Note{}
	for i := range all {
		if ev.Matches(all[i].Schedule(), all[i].ID, date) {
			hits = append(hits, all[i])
		}
	}
	return hits, nil
}

// Month resolves the per-day note layout for one month.
func (s *noteService) Month(ctx context.Context, worldID string, year, month int, includeGM bool) (*MonthGrid, error) {
	conv, _, err := s.calendars.Converter(ctx, worldID)
	if err != nil {
		return nil, err
	}
	sc := conv.Schema()
	if month < 0 || month >= len(sc.Months) {
		return nil, apperror.NewValidation("month index out of range")
	}

	all, err := s.repo.ListAll(ctx, worldID, includeGM)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	ev := recurrence.NewEvaluator(conv)
	days := sc.MonthDays(month, year)
	grid := &MonthGrid{Year: year, Month: month, Days: make([][]Ref, days)}
	for day := 0; day < days; day++ {
		grid.Days[day] = []Ref{}
		date := schema.Date{Year: year, Month: month, Day: day}
		for i := range all {
			if ev.Matches(all[i].Schedule(), all[i].ID, date) {
				grid.Days[day] = append(grid.Days[day], all[i].AsRef())
			}
		}
	}
	return grid, nil
}

// Upcoming scans forward from the world clock, day by day, and returns
// the next occurrences within the horizon.
func (s *noteService) Upcoming(ctx context.Context, worldID string, horizonDays, limit int, includeGM bool) ([]Occurrence, error) {
	if horizonDays < 1 {
		horizonDays = defaultHorizonDays
	}
	if horizonDays > maxHorizonDays {
		horizonDays = maxHorizonDays
	}
	if limit < 1 {
		limit = defaultUpcoming
	}
	if limit > maxUpcoming {
		limit = maxUpcoming
	}

	conv, cal, err := s.calendars.Converter(ctx, worldID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.ListAll(ctx, worldID, includeGM)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	ev := recurrence.NewEvaluator(conv)
	spd := conv.Schema().SecondsPerDay()
	occurrences := []Occurrence{}
	for i := 0; i < horizonDays && len(occurrences) < limit; i++ {
		date := conv.ToComponents(cal.CurrentTime + int64(i)*spd).Date()

		var dayHits []Occurrence
		for j := range all {
			if ev.Matches(all[j].Schedule(), all[j].ID, date) {
				dayHits = append(dayHits, Occurrence{Date: date, Note: all[j].AsRef()})
			}
		}
		sort.Slice(dayHits, func(a, b int) bool {
			na, nb := dayHits[a].Note, dayHits[b].Note
			if na.AllDay != nb.AllDay {
				return na.AllDay
			}
			if na.Hour != nb.Hour {
				return na.Hour < nb.Hour
			}
			if na.Minute != nb.Minute {
				return na.Minute < nb.Minute
			}
			return na.Title < nb.Title
		})
		for _, hit := range dayHits {
			if len(occurrences) == limit {
				break
			}
			occurrences = append(occurrences, hit)
		}
	}
	return occurrences, nil
}

// sanitize normalizes and validates a note against its world's calendar.
func (s *noteService) sanitize(ctx context.Context, note *Note) error {
	note.Title = strings.TrimSpace(note.Title)
	if note.Title == "" {
		note.Title = "Untitled"
	}
	if len(note.Title) > maxTitleLength {
		return apperror.NewValidation(fmt.Sprintf("title cannot exceed %d characters", maxTitleLength))
	}
	if len(note.Content) > maxContentLength {
		return apperror.NewValidation(fmt.Sprintf("content cannot exceed %d characters", maxContentLength))
	}
	note.Category = strings.TrimSpace(note.Category)
	if len(note.Category) > maxCategoryLength {
		return apperror.NewValidation(fmt.Sprintf("category cannot exceed %d characters", maxCategoryLength))
	}
	if len(note.Color) > maxColorLength {
		return apperror.NewValidation(fmt.Sprintf("color cannot exceed %d characters", maxColorLength))
	}

	if note.Visibility == "" {
		note.Visibility = VisibilityEveryone
	}
	if note.Visibility != VisibilityEveryone && note.Visibility != VisibilityGMOnly {
		return apperror.NewValidation("visibility must be 'everyone' or 'gm_only'")
	}

	if note.Repeat == "" {
		note.Repeat = string(recurrence.UnitNone)
	}
	switch recurrence.Unit(note.Repeat) {
	case recurrence.UnitNone:
		note.Interval = 0
		note.RepeatCount = 0
		note.Rule = nil
	case recurrence.UnitDays, recurrence.UnitMonths, recurrence.UnitYears:
		if note.Interval == 0 {
			note.Interval = 1
		}
		if note.Interval < 1 || note.Interval > maxInterval {
			return apperror.NewValidation(fmt.Sprintf("interval must be between 1 and %d", maxInterval))
		}
		note.Rule = nil
	case recurrence.UnitAdvanced:
		if note.Rule == nil {
			return apperror.NewValidation("advanced repeat requires a rule")
		}
	default:
		return apperror.NewValidation("repeat must be one of 'none', 'days', 'months', 'years', 'advanced'")
	}
	if note.RepeatCount < 0 {
		return apperror.NewValidation("repeat_count cannot be negative")
	}

	conv, _, err := s.calendars.Converter(ctx, note.WorldID)
	if err != nil {
		return err
	}
	sc := conv.Schema()
	if note.Month < 0 || note.Month >= len(sc.Months) {
		return apperror.NewValidation("month index out of range")
	}
	if note.Day < 0 || note.Day >= sc.MonthDays(note.Month, note.Year) {
		return apperror.NewValidation("day index out of range")
	}
	if note.Hour < 0 || note.Hour >= sc.HoursPerDay {
		return apperror.NewValidation("hour out of range")
	}
	if note.Minute < 0 || note.Minute >= sc.MinutesPerHour {
		return apperror.NewValidation("minute out of range")
	}
	if note.Rule != nil {
		if err := validateRule(sc, note.Rule); err != nil {
			return err
		}
	}
	return nil
}

// validateRule checks an advanced rule's references against the schema.
func validateRule(sc *schema.Calendar, rule *RuleSpec) error {
	monthCount := len(sc.Months)
	switch rule.Kind {
	case RuleLunar:
		if rule.Moon < 0 || rule.Moon >= len(sc.Moons) {
			return apperror.NewValidation("rule moon index out of range")
		}
		if rule.Phase < 0 || rule.Phase >= len(sc.Moons[rule.Moon].Phases) {
			return apperror.NewValidation("rule phase index out of range")
		}
		if rule.StartMonth < 0 || rule.StartMonth >= monthCount ||
			rule.EndMonth < 0 || rule.EndMonth >= monthCount {
			return apperror.NewValidation("rule month window out of range")
		}
	case RuleWeekday:
		if rule.Weekday < 0 || rule.Weekday >= sc.WeekLength() {
			return apperror.NewValidation("rule weekday out of range")
		}
		if rule.Ordinal < -1 {
			return apperror.NewValidation("rule ordinal must be -1 or a positive position")
		}
		if rule.Month != -1 && (rule.Month < 0 || rule.Month >= monthCount) {
			return apperror.NewValidation("rule month out of range")
		}
	case RuleWeekIndex:
		if rule.Day < 0 || rule.Day >= sc.WeekLength() {
			return apperror.NewValidation("rule day out of range")
		}
		if rule.Week < -1 {
			return apperror.NewValidation("rule week must be -1 or a non-negative index")
		}
	case RuleRandom:
		if rule.StartMonth < 0 || rule.StartMonth >= monthCount ||
			rule.EndMonth < 0 || rule.EndMonth >= monthCount {
			return apperror.NewValidation("rule month window out of range")
		}
		if rule.Count < 1 {
			return apperror.NewValidation("rule count must be positive")
		}
	default:
		return apperror.NewValidation("rule kind must be one of 'lunar', 'weekday', 'week_index', 'random'")
	}
	return nil
}
