package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// TerminalHandler serves terminal administration and game reporting.
type TerminalHandler struct {
	Terminals *repository.TerminalRepo
	Log       *zap.Logger
	Clock     pricing.Clock
}

func NewTerminalHandler(t *repository.TerminalRepo, log *zap.Logger, clock pricing.Clock) *TerminalHandler {
	if clock == nil {
		clock = pricing.SystemClock
	}
	return &TerminalHandler{Terminals: t, Log: log, Clock: clock}
}

func (h *TerminalHandler) now() time.Time { return h.Clock().UTC().Truncate(time.Second) }

type terminalReq struct {
	Name string `json:"name"`
}

type statusReq struct {
	Status string `json:"status"`
}

type gameReq struct {
	Game *string `json:"game"`
}

// Create handles POST /v1/terminals.
func (h *TerminalHandler) Create(c echo.Context) error {
	var req terminalReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Terminals.Create(ctx, req.Name, h.now())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// List handles GET /v1/terminals.
func (h *TerminalHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Terminals.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/terminals/:id.
func (h *TerminalHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Terminals.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Rename handles PUT /v1/terminals/:id.
func (h *TerminalHandler) Rename(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req terminalReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Terminals.Rename(ctx, id, req.Name, h.now())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateStatus handles PATCH /v1/terminals/:id/status.
func (h *TerminalHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Terminals.UpdateStatus(ctx, id, strings.TrimSpace(req.Status), h.now())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// SetGame handles PATCH /v1/terminals/:id/game.
func (h *TerminalHandler) SetGame(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req gameReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Terminals.SetGame(ctx, id, req.Game, h.now())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}
