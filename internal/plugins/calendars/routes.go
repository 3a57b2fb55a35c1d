package calendars

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// RegisterRoutes wires the calendar management endpoints under a world
// scope. Every route resolves the world first; the handler then reads it
// from context.
func RegisterRoutes(e *echo.Echo, h *CalendarHandler, worldService worlds.WorldService) {
	g := e.Group("/worlds/:id/calendar", worlds.RequireWorld(worldService))

	g.POST("", h.Create)
	g.GET("", h.Get)
	g.PUT("/settings", h.UpdateSettings)
	g.DELETE("", h.Delete)

	g.PUT("/months", h.SetMonths)
	g.PUT("/weekdays", h.SetWeekdays)
	g.PUT("/moons", h.SetMoons)
	g.PUT("/seasons", h.SetSeasons)

	g.GET("/export", h.Export)
	g.POST("/import", h.Import)
	g.GET("/presets", h.ListPresets)
	g.POST("/presets/:name", h.ApplyPreset)

	g.GET("/clock", h.Clock)
	g.PUT("/clock", h.SetClock)
	g.POST("/clock/advance", h.Advance)

	g.GET("/convert", h.Convert)
	g.POST("/convert", h.ConvertBack)
	g.GET("/moons", h.Moons)
	g.GET("/season", h.Season)
	g.GET("/weather", h.Weather)

	g.PUT("/sync", h.EnableSync)
	g.DELETE("/sync", h.DisableSync)
}
