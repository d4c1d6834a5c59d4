package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// RegisterAdmin registers ADMIN-only endpoints under /v1. Writes to the
// catalog (time packages, happy hours) purge the response cache.
func RegisterAdmin(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)
	purge := middleware.PurgeCache(opt.Cache, opt.Redis, opt.Log)

	// ---- Members ----
	g.GET("/members", h.Members.List)
	g.GET("/members/:id", h.Members.Get)
	g.POST("/members/:id/topup", h.Members.TopUp)
	g.PATCH("/members/:id/tier", h.Members.UpdateTier)

	// ---- Sessions ----
	g.GET("/sessions", h.Sessions.List)

	// ---- Terminals ----
	g.GET("/terminals", h.Terminals.List)
	g.POST("/terminals", h.Terminals.Create)
	g.GET("/terminals/:id", h.Terminals.Get)
	g.PUT("/terminals/:id", h.Terminals.Rename)
	g.PATCH("/terminals/:id/status", h.Terminals.UpdateStatus)
	g.PATCH("/terminals/:id/game", h.Terminals.SetGame)

	// ---- Time packages ----
	g.GET("/admin/time-packages", h.TimePackages.ListAll)
	g.POST("/time-packages", h.TimePackages.Create, purge)
	g.PUT("/time-packages/:id", h.TimePackages.Update, purge)
	g.DELETE("/time-packages/:id", h.TimePackages.Delete, purge)

	// ---- Happy hours ----
	g.GET("/happy-hours", h.Pricing.List, cache)
	g.POST("/happy-hours", h.Pricing.Create, purge)
	g.PUT("/happy-hours/:id", h.Pricing.Update, purge)
	g.DELETE("/happy-hours/:id", h.Pricing.Delete, purge)

	// ---- Activity ----
	g.GET("/activity", h.Feed.ListActivity)
}
