package notes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// NoteHandler serves the note management endpoints. All routes are scoped
// under a world resolved by worlds.RequireWorld; the management tier sees
// GM-only notes.
type NoteHandler struct {
	service NoteService
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(service NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

// List handles GET /worlds/:id/notes.
func (h *NoteHandler) List(c echo.Context) error {
	world := worlds.MustWorld(c)

	opts := DefaultListOptions()
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		opts.Page = page
	}
	if perPage, err := strconv.Atoi(c.QueryParam("per_page")); err == nil {
		opts.PerPage = perPage
	}
	opts.Category = c.QueryParam("category")
	opts.Visibility = c.QueryParam("visibility")

	list, total, err := h.service.List(c.Request().Context(), world.ID, opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []Note{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":     list,
		"total":    total,
		"page":     opts.Page,
		"per_page": opts.PerPage,
	})
}

// Create handles POST /worlds/:id/notes.
func (h *NoteHandler) Create(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	note, err := h.service.Create(c.Request().Context(), world.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// Get handles GET /worlds/:id/notes/:noteID.
func (h *NoteHandler) Get(c echo.Context) error {
	world := worlds.MustWorld(c)
	note, err := h.service.Get(c.Request().Context(), world.ID, c.Param("noteID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Update handles PUT /worlds/:id/notes/:noteID.
func (h *NoteHandler) Update(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	note, err := h.service.Update(c.Request().Context(), world.ID, c.Param("noteID"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Delete handles DELETE /worlds/:id/notes/:noteID.
func (h *NoteHandler) Delete(c echo.Context) error {
	world := worlds.MustWorld(c)
	if err := h.service.Delete(c.Request().Context(), world.ID, c.Param("noteID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// OnDate handles GET /worlds/:id/notes/on-date?year=&month=&day=.
func (h *NoteHandler) OnDate(c echo.Context) error {
	world := worlds.MustWorld(c)

	year, err := requireIntParam(c, "year")
	if err != nil {
		return err
	}
	month, err := requireIntParam(c, "month")
	if err != nil {
		return err
	}
	day, err := requireIntParam(c, "day")
	if err != nil {
		return err
	}

	date := schema.Date{Year: year, Month: month, Day: day}
	hits, err := h.service.OnDate(c.Request().Context(), world.ID, date, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": hits})
}

// Month handles GET /worlds/:id/notes/month?year=&month=.
func (h *NoteHandler) Month(c echo.Context) error {
	world := worlds.MustWorld(c)

	year, err := requireIntParam(c, "year")
	if err != nil {
		return err
	}
	month, err := requireIntParam(c, "month")
	if err != nil {
		return err
	}
	grid, err := h.service.Month(c.Request().Context(), world.ID, year, month, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grid)
}

// Upcoming handles GET /worlds/:id/notes/upcoming?days=&limit=.
func (h *NoteHandler) Upcoming(c echo.Context) error {
	world := worlds.MustWorld(c)

	days, _ := strconv.Atoi(c.QueryParam("days"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	occurrences, err := h.service.Upcoming(c.Request().Context(), world.ID, days, limit, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": occurrences})
}

// requireIntParam parses a mandatory integer query parameter.
func requireIntParam(c echo.Context, name string) (int, error) {
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
