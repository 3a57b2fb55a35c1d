package apikeys

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// RegisterManagementRoutes adds key administration endpoints under the
// world management tier.
func RegisterManagementRoutes(e *echo.Echo, h *Handler, worldService worlds.WorldService) {
	g := e.Group("/worlds/:id/api-keys", worlds.RequireWorld(worldService))

	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:keyID/toggle", h.Toggle)
	g.DELETE("/:keyID", h.Revoke)
}

// RegisterAPIRoutes adds the public REST endpoints under /api/v1. Every
// route authenticates with a Bearer key and counts against the key's
// rate limit; world-scoped routes verify the key matches the world.
func RegisterAPIRoutes(e *echo.Echo, api *APIHandler, keyService APIKeyService, worldService worlds.WorldService, rdb *redis.Client) {
	v1 := e.Group("/api/v1",
		RequireAPIKey(keyService),
		RateLimit(rdb),
	)

	wg := v1.Group("/worlds/:id",
		RequireWorldMatch(),
		worlds.RequireWorld(worldService),
	)

	// Read endpoints, open to both roles.
	wg.GET("", api.GetWorld)
	wg.GET("/calendar", api.GetCalendar)
	wg.GET("/date", api.GetDate)
	wg.GET("/convert", api.Convert)
	wg.POST("/convert", api.ConvertBack)
	wg.GET("/moons", api.Moons)
	wg.GET("/season", api.Season)
	wg.GET("/weather", api.Weather)
	wg.GET("/notes", api.NotesOnDate)
	wg.GET("/notes/month", api.NotesMonth)
	wg.GET("/notes/upcoming", api.NotesUpcoming)

	// Clock control, gm keys only.
	wg.PUT("/clock", api.SetClock, RequireRole(RoleGM))
	wg.POST("/clock/advance", api.AdvanceClock, RequireRole(RoleGM))
}
