package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// MemberID returns the authenticated member id set by JWTAuth.
func MemberID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxMemberID).(uint64)
	return id, ok && id > 0
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// identityKey identifies the caller for rate limiting and cache keys:
// the member id, or "anon".
func identityKey(c echo.Context) string {
	if id, ok := MemberID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
