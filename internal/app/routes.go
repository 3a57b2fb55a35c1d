package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/cache"
	"github.com/keyxmakerx/almanac/internal/plugins/apikeys"
	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
	"github.com/keyxmakerx/almanac/internal/plugins/notes"
	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// RegisterRoutes sets up all application routes. It builds each plugin's
// repository/service/handler chain and delegates to the plugin's own route
// registration.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes(presetCatalog calendars.PresetCatalog) {
	e := a.Echo

	// Health check endpoint for container health monitoring. Verifies both
	// backing stores.
	e.GET("/healthz", a.health)

	// Conversion cache fronts the engine math on hot read paths.
	conversions := cache.NewConversions(a.Redis, a.Config.Redis.ConversionTTL)

	// worlds plugin.
	worldRepo := worlds.NewWorldRepository(a.DB)
	worldService := worlds.NewWorldService(worldRepo)
	worlds.RegisterRoutes(e, worlds.NewHandler(worldService), worldService)

	// calendars plugin.
	calendarRepo := calendars.NewCalendarRepository(a.DB)
	calendarService := calendars.NewCalendarService(calendarRepo, conversions)
	calendars.RegisterRoutes(e, calendars.NewCalendarHandler(calendarService, presetCatalog), worldService)

	// notes plugin, anchored on the calendar service for validation.
	noteRepo := notes.NewNoteRepository(a.DB)
	noteService := notes.NewNoteService(noteRepo, calendarService)
	notes.RegisterRoutes(e, notes.NewNoteHandler(noteService), worldService)

	// apikeys plugin: key administration on the management tier plus the
	// authenticated external tier under /api/v1.
	keyRepo := apikeys.NewAPIKeyRepository(a.DB)
	keyService := apikeys.NewAPIKeyService(keyRepo, a.Config.API.RateLimitPerMinute)
	apikeys.RegisterManagementRoutes(e, apikeys.NewHandler(keyService), worldService)
	apikeys.RegisterAPIRoutes(e, apikeys.NewAPIHandler(calendarService, noteService), keyService, worldService, a.Redis)
}

// health reports liveness of the process and its backing stores.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["status"] = "degraded"
		status["redis"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
