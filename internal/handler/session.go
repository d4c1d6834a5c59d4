package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

// SessionHandler exposes the session lifecycle and the kiosk poll.
type SessionHandler struct {
	Sessions *service.Sessions
	Log      *zap.Logger
}

func NewSessionHandler(s *service.Sessions, log *zap.Logger) *SessionHandler {
	return &SessionHandler{Sessions: s, Log: log}
}

type startReq struct {
	MemberID      uint64  `json:"memberId"`
	TerminalID    uint64  `json:"terminalId"`
	TimePackageID *uint64 `json:"timePackageId"`
}

type endReq struct {
	TotalCost *decimal.Decimal `json:"totalCost"`
}

// canActFor reports whether the caller may operate on memberID's sessions.
func canActFor(c echo.Context, memberID uint64) bool {
	if middleware.Role(c) == model.RoleAdmin {
		return true
	}
	id, ok := middleware.MemberID(c)
	return ok && id == memberID
}

// Start handles POST /v1/sessions. A MEMBER may omit memberId; it
// defaults to the caller.
func (h *SessionHandler) Start(c echo.Context) error {
	var req startReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.MemberID == 0 {
		req.MemberID, _ = middleware.MemberID(c)
	}
	if req.MemberID == 0 || req.TerminalID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "memberId and terminalId are required"})
	}
	if req.TimePackageID != nil && *req.TimePackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timePackageId"})
	}
	if !canActFor(c, req.MemberID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	sess, err := h.Sessions.Start(ctx, service.StartInput{
		MemberID:      req.MemberID,
		TerminalID:    req.TerminalID,
		TimePackageID: req.TimePackageID,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// End handles POST /v1/sessions/:id/end. Without totalCost an open-ended
// session is billed for elapsed time and a package session keeps its
// prepaid cost. Only ADMIN may pass totalCost.
func (h *SessionHandler) End(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req endReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return invalidBody(c)
		}
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	sess, err := h.Sessions.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !canActFor(c, sess.MemberID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	// members may end their own session but the bill is set by staff
	if req.TotalCost != nil && middleware.Role(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only an admin may set totalCost"})
	}
	out, err := h.Sessions.Checkout(ctx, id, req.TotalCost)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	sess, err := h.Sessions.Get(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !canActFor(c, sess.MemberID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, sess)
}

// Mine handles GET /v1/me/sessions.
func (h *SessionHandler) Mine(c echo.Context) error {
	id, ok := middleware.MemberID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Sessions.ListByMember(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// List handles GET /v1/sessions?status=active|ended (admin).
func (h *SessionHandler) List(c echo.Context) error {
	status := model.SessionStatus(c.QueryParam("status"))
	switch status {
	case "", model.SessionActive, model.SessionEnded:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or ended"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Sessions.List(ctx, status)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Kiosk handles GET /v1/terminals/:id/session, polled by the lock screen.
func (h *SessionHandler) Kiosk(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	st, err := h.Sessions.KioskStatus(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
