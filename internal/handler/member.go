package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

// MemberHandler is the admin view of member accounts.
type MemberHandler struct {
	Members *repository.MemberRepo
	Ledger  *service.Ledger
	Log     *zap.Logger
	Clock   pricing.Clock
}

func NewMemberHandler(m *repository.MemberRepo, l *service.Ledger, log *zap.Logger, clock pricing.Clock) *MemberHandler {
	if clock == nil {
		clock = pricing.SystemClock
	}
	return &MemberHandler{Members: m, Ledger: l, Log: log, Clock: clock}
}

type topUpReq struct {
	Amount *decimal.Decimal `json:"amount"`
}

type tierReq struct {
	Tier string `json:"tier"`
}

// TopUp handles POST /v1/members/:id/topup.
func (h *MemberHandler) TopUp(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req topUpReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Amount == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount is required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	m, err := h.Ledger.TopUp(ctx, id, *req.Amount)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// List handles GET /v1/members.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Members.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/members/:id.
func (h *MemberHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateTier handles PATCH /v1/members/:id/tier.
func (h *MemberHandler) UpdateTier(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req tierReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if !model.ValidTier(req.Tier) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier must be Bronze, Silver, Gold or Platinum"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Members.UpdateTier(ctx, id, req.Tier, h.Clock().UTC().Truncate(time.Second)); err != nil {
		return writeError(c, h.Log, err)
	}
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}
