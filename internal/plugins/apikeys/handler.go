package apikeys

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/apperror"
	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// Handler processes management requests for API keys.
type Handler struct {
	service APIKeyService
}

// NewHandler creates a new API key management handler.
func NewHandler(service APIKeyService) *Handler {
	return &Handler{service: service}
}

// List returns all API keys for a world.
// GET /worlds/:id/api-keys
func (h *Handler) List(c echo.Context) error {
	world := worlds.MustWorld(c)

	keys, err := h.service.ListKeys(c.Request().Context(), world.ID)
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []APIKey{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": keys})
}

// apiCreateKeyRequest is the JSON body for creating an API key.
type apiCreateKeyRequest struct {
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	RateLimit int        `json:"rate_limit"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create issues a new API key. The response carries the plaintext key
// exactly once.
// POST /worlds/:id/api-keys
func (h *Handler) Create(c echo.Context) error {
	world := worlds.MustWorld(c)

	var req apiCreateKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.CreateKey(c.Request().Context(), CreateKeyInput{
		Name:      req.Name,
		WorldID:   world.ID,
		Role:      Role(req.Role),
		RateLimit: req.RateLimit,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// apiToggleKeyRequest is the JSON body for enabling or disabling a key.
type apiToggleKeyRequest struct {
	Active bool `json:"active"`
}

// Toggle enables or disables an API key.
// PUT /worlds/:id/api-keys/:keyID/toggle
func (h *Handler) Toggle(c echo.Context) error {
	key, err := h.worldKey(c)
	if err != nil {
		return err
	}

	var req apiToggleKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if req.Active {
		err = h.service.ActivateKey(ctx, key.ID)
	} else {
		err = h.service.DeactivateKey(ctx, key.ID)
	}
	if err != nil {
		return err
	}

	updated, err := h.service.GetKey(ctx, key.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Revoke permanently deletes an API key.
// DELETE /worlds/:id/api-keys/:keyID
func (h *Handler) Revoke(c echo.Context) error {
	key, err := h.worldKey(c)
	if err != nil {
		return err
	}
	if err := h.service.RevokeKey(c.Request().Context(), key.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// worldKey loads the :keyID key and hides keys belonging to other worlds.
func (h *Handler) worldKey(c echo.Context) (*APIKey, error) {
	world := worlds.MustWorld(c)

	id, err := strconv.Atoi(c.Param("keyID"))
	if err != nil {
		return nil, apperror.NewBadRequest("invalid key ID")
	}
	key, err := h.service.GetKey(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if key.WorldID != world.ID {
		return nil, apperror.NewNotFound("api key not found")
	}
	return key, nil
}
