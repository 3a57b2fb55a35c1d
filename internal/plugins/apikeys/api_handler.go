package apikeys

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/apperror"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
	"github.com/keyxmakerx/almanac/internal/plugins/notes"
	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// APIHandler serves the public JSON API consumed by VTT modules and
// scripts. All routes sit behind RequireAPIKey; errors pass through
// apperror's safe accessors so internals never reach third parties.
type APIHandler struct {
	calendars calendars.CalendarService
	notes     notes.NoteService
}

// NewAPIHandler creates a new public API handler.
func NewAPIHandler(calendarSvc calendars.CalendarService, noteSvc notes.NoteService) *APIHandler {
	return &APIHandler{calendars: calendarSvc, notes: noteSvc}
}

// GetWorld returns basic information about the key's world.
// GET /api/v1/worlds/:id
func (h *APIHandler) GetWorld(c echo.Context) error {
	world := worlds.MustWorld(c)
	return c.JSON(http.StatusOK, map[string]any{
		"id":          world.ID,
		"name":        world.Name,
		"slug":        world.Slug,
		"description": world.Description,
	})
}

// GetCalendar returns the full calendar for the key's world.
// GET /api/v1/worlds/:id/calendar
func (h *APIHandler) GetCalendar(c echo.Context) error {
	world := worlds.MustWorld(c)

	cal, err := h.calendars.GetByWorld(c.Request().Context(), world.ID)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, cal)
}

// GetDate returns the current clock reading with resolved names.
// GET /api/v1/worlds/:id/date
func (h *APIHandler) GetDate(c echo.Context) error {
	world := worlds.MustWorld(c)

	state, err := h.calendars.Clock(c.Request().Context(), world.ID)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, state)
}

// Convert resolves a world-time value into calendar components.
// GET /api/v1/worlds/:id/convert?world_time=N
func (h *APIHandler) Convert(c echo.Context) error {
	world := worlds.MustWorld(c)

	worldTime, err := strconv.ParseInt(c.QueryParam("world_time"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid 'world_time' parameter")
	}
	comps, err := h.calendars.ToComponents(c.Request().Context(), world.ID, worldTime)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, comps)
}

// ConvertBack resolves calendar components into a world-time value.
// POST /api/v1/worlds/:id/convert
func (h *APIHandler) ConvertBack(c echo.Context) error {
	world := worlds.MustWorld(c)

	var comps worldtime.Components
	if err := c.Bind(&comps); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	worldTime, err := h.calendars.FromComponents(c.Request().Context(), world.ID, comps)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"world_time": worldTime})
}

// Moons returns every moon's phase, at the clock or an explicit time.
// GET /api/v1/worlds/:id/moons?at=N
func (h *APIHandler) Moons(c echo.Context) error {
	world := worlds.MustWorld(c)

	at, err := apiAt(c)
	if err != nil {
		return err
	}
	phases, err := h.calendars.MoonPhases(c.Request().Context(), world.ID, at)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"data": phases})
}

// Season returns the season covering the clock or an explicit time.
// GET /api/v1/worlds/:id/season?at=N
func (h *APIHandler) Season(c echo.Context) error {
	world := worlds.MustWorld(c)

	at, err := apiAt(c)
	if err != nil {
		return err
	}
	season, err := h.calendars.SeasonAt(c.Request().Context(), world.ID, at)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"season": season})
}

// Weather returns generated weather for the clock or an explicit time.
// GET /api/v1/worlds/:id/weather?at=N
func (h *APIHandler) Weather(c echo.Context) error {
	world := worlds.MustWorld(c)

	at, err := apiAt(c)
	if err != nil {
		return err
	}
	report, err := h.calendars.WeatherAt(c.Request().Context(), world.ID, world.Seed, at)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, report)
}

// apiSetClockRequest is the JSON body for setting the clock absolutely.
type apiSetClockRequest struct {
	WorldTime *int64                `json:"world_time"`
	Date      *worldtime.Components `json:"date"`
}

// SetClock sets the world clock to an absolute time or date. GM keys only.
// PUT /api/v1/worlds/:id/clock
func (h *APIHandler) SetClock(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetClockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	var state *calendars.ClockState
	var err error
	switch {
	case req.WorldTime != nil && req.Date == nil:
		state, err = h.calendars.SetClock(ctx, world.ID, *req.WorldTime)
	case req.Date != nil && req.WorldTime == nil:
		state, err = h.calendars.SetClockDate(ctx, world.ID, *req.Date)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "provide exactly one of 'world_time' or 'date'")
	}
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, state)
}

// apiAdvanceRequest is the JSON body for advancing the clock.
type apiAdvanceRequest struct {
	Seconds int64 `json:"seconds"`
	Days    int   `json:"days"`
}

// AdvanceClock moves the world clock forward. GM keys only.
// POST /api/v1/worlds/:id/clock/advance
func (h *APIHandler) AdvanceClock(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiAdvanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	state, err := h.calendars.Advance(c.Request().Context(), world.ID, req.Seconds, req.Days)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, state)
}

// NotesOnDate returns notes falling on a specific date. Player keys see
// only player-visible notes.
// GET /api/v1/worlds/:id/notes?year=Y&month=M&day=D
func (h *APIHandler) NotesOnDate(c echo.Context) error {
	world := worlds.MustWorld(c)
	key := GetAPIKey(c)

	year, err := apiIntParam(c, "year")
	if err != nil {
		return err
	}
	month, err := apiIntParam(c, "month")
	if err != nil {
		return err
	}
	day, err := apiIntParam(c, "day")
	if err != nil {
		return err
	}

	hits, err := h.notes.OnDate(c.Request().Context(), world.ID,
		schema.Date{Year: year, Month: month, Day: day}, key.IsGM())
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"data": hits})
}

// NotesMonth returns the per-day note layout for a month.
// GET /api/v1/worlds/:id/notes/month?year=Y&month=M
func (h *APIHandler) NotesMonth(c echo.Context) error {
	world := worlds.MustWorld(c)
	key := GetAPIKey(c)

	year, err := apiIntParam(c, "year")
	if err != nil {
		return err
	}
	month, err := apiIntParam(c, "month")
	if err != nil {
		return err
	}

	grid, err := h.notes.Month(c.Request().Context(), world.ID, year, month, key.IsGM())
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, grid)
}

// NotesUpcoming returns the next note occurrences from the world clock.
// GET /api/v1/worlds/:id/notes/upcoming?days=N&limit=M
func (h *APIHandler) NotesUpcoming(c echo.Context) error {
	world := worlds.MustWorld(c)
	key := GetAPIKey(c)

	days, _ := strconv.Atoi(c.QueryParam("days"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	occ, err := h.notes.Upcoming(c.Request().Context(), world.ID, days, limit, key.IsGM())
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"data": occ})
}

// apiAt parses the optional `at` world-time query parameter.
func apiAt(c echo.Context) (*int64, error) {
	raw := c.QueryParam("at")
	if raw == "" {
		return nil, nil
	}
	at, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid 'at' parameter")
	}
	return &at, nil
}

// apiIntParam parses a required integer query parameter.
func apiIntParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "missing '"+name+"' parameter")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid '"+name+"' parameter")
	}
	return v, nil
}
