package notes

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/plugins/worlds"
)

// RegisterRoutes wires the note management endpoints under a world scope.
// Static segments are registered alongside :noteID; echo resolves them
// first.
func RegisterRoutes(e *echo.Echo, h *NoteHandler, worldService worlds.WorldService) {
	g := e.Group("/worlds/:id/notes", worlds.RequireWorld(worldService))

	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/on-date", h.OnDate)
	g.GET("/month", h.Month)
	g.GET("/upcoming", h.Upcoming)
	g.GET("/:noteID", h.Get)
	g.PUT("/:noteID", h.Update)
	g.DELETE("/:noteID", h.Delete)
}
