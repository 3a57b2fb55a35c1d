package worlds

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler processes HTTP requests for the worlds plugin.
type Handler struct {
	svc WorldService
}

// NewHandler creates a new worlds Handler.
func NewHandler(svc WorldService) *Handler {
	return &Handler{svc: svc}
}

// List returns worlds with pagination.
// GET /worlds?page=1&per_page=24
func (h *Handler) List(c echo.Context) error {
	opts := DefaultListOptions()
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		opts.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("per_page")); err == nil {
		opts.PerPage = v
	}

	worlds, total, err := h.svc.List(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	if worlds == nil {
		worlds = []World{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":     worlds,
		"total":    total,
		"page":     opts.Page,
		"per_page": opts.PerPage,
	})
}

// Get returns a single world.
// GET /worlds/:id
func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, MustWorld(c))
}

// Create creates a new world.
// POST /worlds
func (h *Handler) Create(c echo.Context) error {
	var req CreateWorldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	world, err := h.svc.Create(c.Request().Context(), CreateWorldInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, world)
}

// Update modifies a world's name and description.
// PUT /worlds/:id
func (h *Handler) Update(c echo.Context) error {
	world := MustWorld(c)

	var req UpdateWorldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.svc.Update(c.Request().Context(), world.ID, UpdateWorldInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes a world and everything scoped to it.
// DELETE /worlds/:id
func (h *Handler) Delete(c echo.Context) error {
	world := MustWorld(c)

	if err := h.svc.Delete(c.Request().Context(), world.ID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
