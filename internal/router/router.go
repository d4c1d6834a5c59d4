// Package router registers the HTTP routes of the API.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/config"
	"github.com/iliyamo/gamecafe-session-engine/internal/handler"
	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Auth         *handler.AuthHandler
	Sessions     *handler.SessionHandler
	Members      *handler.MemberHandler
	Terminals    *handler.TerminalHandler
	Pricing      *handler.PricingHandler
	TimePackages *handler.TimePackageHandler
	Feed         *handler.FeedHandler
}

// Options carries what the route groups need besides the handlers. Redis
// may be nil, in which case caching is skipped.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// RegisterRoutes mounts the public, member and admin groups on e.
func RegisterRoutes(e *echo.Echo, h Handlers, opt Options) {
	e.GET("/healthz", handler.Health(opt.DB))
	RegisterAuth(e, h.Auth)
	RegisterPublic(e, h, opt)
	RegisterMember(e, h, opt.JWTSecret)
	RegisterAdmin(e, h, opt)
}

// RegisterAuth registers the unauthenticated token endpoints under
// /v1/auth. Logout also accepts a bearer token to revoke every refresh
// token of the caller.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterPublic registers endpoints that kiosks and guests call without a
// token.
func RegisterPublic(e *echo.Echo, h Handlers, opt Options) {
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)

	e.GET("/v1/pricing/calculate", h.Pricing.Calculate)
	e.GET("/v1/happy-hours/current", h.Pricing.Current)
	// kiosk poll; never cached, remaining time changes every second
	e.GET("/v1/terminals/:id/session", h.Sessions.Kiosk)
	e.GET("/v1/time-packages", h.TimePackages.ListActive, cache)
}
