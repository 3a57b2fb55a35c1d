package calendars

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// CalendarHandler serves the calendar management endpoints. All routes are
// scoped under a world resolved by worlds.RequireWorld.
type CalendarHandler struct {
	service CalendarService
	presets PresetCatalog
}

// NewCalendarHandler creates a CalendarHandler. presets may be nil, in
// which case the preset endpoints report an empty catalog.
func NewCalendarHandler(service CalendarService, presets PresetCatalog) *CalendarHandler {
	return &CalendarHandler{service: service, presets: presets}
}

// apiSetClockRequest sets the clock either to an absolute second count or
// to a calendar date. Exactly one of the two must be present.
type apiSetClockRequest struct {
	WorldTime *int64                `json:"world_time"`
	Date      *worldtime.Components `json:"date"`
}

// apiAdvanceRequest shifts the clock by seconds plus whole days.
type apiAdvanceRequest struct {
	Seconds int64 `json:"seconds"`
	Days    int   `json:"days"`
}

type apiSetMonthsRequest struct {
	Months []MonthInput `json:"months"`
}

type apiSetWeekdaysRequest struct {
	Weekdays []WeekdayInput `json:"weekdays"`
}

type apiSetMoonsRequest struct {
	Moons []MoonInput `json:"moons"`
}

type apiSetSeasonsRequest struct {
	Seasons []SeasonInput `json:"seasons"`
}

// Create handles POST /worlds/:id/calendar.
func (h *CalendarHandler) Create(c echo.Context) error {
	world := worlds.MustWorld(c)

	var input SettingsInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.Create(c.Request().Context(), world.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cal)
}

// Get handles GET /worlds/:id/calendar.
func (h *CalendarHandler) Get(c echo.Context) error {
	world := worlds.MustWorld(c)
	cal, err := h.service.GetByWorld(c.Request().Context(), world.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// UpdateSettings handles PUT /worlds/:id/calendar/settings.
func (h *CalendarHandler) UpdateSettings(c echo.Context) error {
	world := worlds.MustWorld(c)

	var input SettingsInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.UpdateSettings(c.Request().Context(), world.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// Delete handles DELETE /worlds/:id/calendar.
func (h *CalendarHandler) Delete(c echo.Context) error {
	world := worlds.MustWorld(c)
	if err := h.service.Delete(c.Request().Context(), world.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetMonths handles PUT /worlds/:id/calendar/months.
func (h *CalendarHandler) SetMonths(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetMonthsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.SetMonths(c.Request().Context(), world.ID, req.Months)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// SetWeekdays handles PUT /worlds/:id/calendar/weekdays.
func (h *CalendarHandler) SetWeekdays(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetWeekdaysRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.SetWeekdays(c.Request().Context(), world.ID, req.Weekdays)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// SetMoons handles PUT /worlds/:id/calendar/moons.
func (h *CalendarHandler) SetMoons(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetMoonsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.SetMoons(c.Request().Context(), world.ID, req.Moons)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// SetSeasons handles PUT /worlds/:id/calendar/seasons.
func (h *CalendarHandler) SetSeasons(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetSeasonsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.SetSeasons(c.Request().Context(), world.ID, req.Seasons)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// Export handles GET /worlds/:id/calendar/export.
func (h *CalendarHandler) Export(c echo.Context) error {
	world := worlds.MustWorld(c)
	cal, err := h.service.GetByWorld(c.Request().Context(), world.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal.Export())
}

// Import handles POST /worlds/:id/calendar/import. The body is a full
// calendar definition; it replaces whatever is configured.
func (h *CalendarHandler) Import(c echo.Context) error {
	world := worlds.MustWorld(c)

	var def Definition
	if err := c.Bind(&def); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.ApplyDefinition(c.Request().Context(), world.ID, def)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// ListPresets handles GET /worlds/:id/calendar/presets.
func (h *CalendarHandler) ListPresets(c echo.Context) error {
	names := []string{}
	if h.presets != nil {
		names = h.presets.Names()
	}
	return c.JSON(http.StatusOK, map[string]any{"data": names})
}

// ApplyPreset handles POST /worlds/:id/calendar/presets/:name.
func (h *CalendarHandler) ApplyPreset(c echo.Context) error {
	world := worlds.MustWorld(c)
	name := c.Param("name")

	if h.presets == nil {
		return echo.NewHTTPError(http.StatusNotFound, "preset not found")
	}
	def, ok := h.presets.Definition(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "preset not found")
	}
	cal, err := h.service.ApplyDefinition(c.Request().Context(), world.ID, def)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// Clock handles GET /worlds/:id/calendar/clock.
func (h *CalendarHandler) Clock(c echo.Context) error {
	world := worlds.MustWorld(c)
	state, err := h.service.Clock(c.Request().Context(), world.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// SetClock handles PUT /worlds/:id/calendar/clock.
func (h *CalendarHandler) SetClock(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiSetClockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	var state *ClockState
	var err error
	switch {
	case req.WorldTime != nil && req.Date == nil:
		state, err = h.service.SetClock(ctx, world.ID, *req.WorldTime)
	case req.Date != nil && req.WorldTime == nil:
		state, err = h.service.SetClockDate(ctx, world.ID, *req.Date)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "provide exactly one of 'world_time' or 'date'")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Advance handles POST /worlds/:id/calendar/clock/advance.
func (h *CalendarHandler) Advance(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiAdvanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	state, err := h.service.Advance(c.Request().Context(), world.ID, req.Seconds, req.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// Convert handles GET /worlds/:id/calendar/convert?world_time=N.
func (h *CalendarHandler) Convert(c echo.Context) error {
	world := worlds.MustWorld(c)

	raw := c.QueryParam("world_time")
	worldTime, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid 'world_time' parameter")
	}
	comps, err := h.service.ToComponents(c.Request().Context(), world.ID, worldTime)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comps)
}

// ConvertBack handles POST /worlds/:id/calendar/convert. The body is a
// components payload; the response carries its world time.
func (h *CalendarHandler) ConvertBack(c echo.Context) error {
	world := worlds.MustWorld(c)

	var comps worldtime.Components
	if err := c.Bind(&comps); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	worldTime, err := h.service.FromComponents(c.Request().Context(), world.ID, comps)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"world_time": worldTime})
}

// Moons handles GET /worlds/:id/calendar/moons?at=N.
func (h *CalendarHandler) Moons(c echo.Context) error {
	world := worlds.MustWorld(c)
	at, err := parseAt(c)
	if err != nil {
		return err
	}
	views, err := h.service.MoonPhases(c.Request().Context(), world.ID, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": views})
}

// Season handles GET /worlds/:id/calendar/season?at=N.
func (h *CalendarHandler) Season(c echo.Context) error {
	world := worlds.MustWorld(c)
	at, err := parseAt(c)
	if err != nil {
		return err
	}
	season, err := h.service.SeasonAt(c.Request().Context(), world.ID, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"season": season})
}

// Weather handles GET /worlds/:id/calendar/weather?at=N.
func (h *CalendarHandler) Weather(c echo.Context) error {
	world := worlds.MustWorld(c)
	at, err := parseAt(c)
	if err != nil {
		return err
	}
	view, err := h.service.WeatherAt(c.Request().Context(), world.ID, world.Seed, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// EnableSync handles PUT /worlds/:id/calendar/sync.
func (h *CalendarHandler) EnableSync(c echo.Context) error {
	world := worlds.MustWorld(c)

	var input SyncInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cal, err := h.service.EnableSync(c.Request().Context(), world.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// DisableSync handles DELETE /worlds/:id/calendar/sync.
func (h *CalendarHandler) DisableSync(c echo.Context) error {
	world := worlds.MustWorld(c)
	cal, err := h.service.DisableSync(c.Request().Context(), world.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

// parseAt reads the optional `at` query parameter. Nil means "now".
func parseAt(c echo.Context) (*int64, error) {
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
