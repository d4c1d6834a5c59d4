package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// RegisterMember registers endpoints open to any signed-in account under
// /v1. Handlers scope MEMBER callers to their own data; ADMIN sees all.
func RegisterMember(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember, model.RoleAdmin),
	)
	g.GET("/me", h.Auth.Me)
	g.GET("/me/sessions", h.Sessions.Mine)

	g.POST("/sessions", h.Sessions.Start)
	g.GET("/sessions/:id", h.Sessions.Get)
	g.POST("/sessions/:id/end", h.Sessions.End)

	g.GET("/notifications", h.Feed.ListNotifications)
	g.POST("/notifications/:id/read", h.Feed.MarkRead)
}
