// Package middleware holds the echo middleware: JWT identity, role gates,
// the Redis response cache and the token-bucket rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gamecafe-session-engine/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxMemberID = "member_id"
	ctxRole     = "role"
)

// JWTAuth validates a Bearer access token and stores the member id
// (uint64) and role (string) in the echo context for MemberID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ctxMemberID, claims.MemberID)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
