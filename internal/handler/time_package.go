package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// TimePackageHandler serves the package catalog.
type TimePackageHandler struct {
	Packages *repository.TimePackageRepo
	Log      *zap.Logger
}

func NewTimePackageHandler(p *repository.TimePackageRepo, log *zap.Logger) *TimePackageHandler {
	return &TimePackageHandler{Packages: p, Log: log}
}

type packageReq struct {
	Name            string           `json:"name"`
	DurationHours   int              `json:"durationHours"`
	DurationMinutes int              `json:"durationMinutes"`
	Price           *decimal.Decimal `json:"price"`
	IsActive        *bool            `json:"isActive"`
}

func (r packageReq) validate() (model.TimePackage, string) {
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return model.TimePackage{}, "name is required"
	case r.DurationHours < 0 || r.DurationMinutes < 0 || r.DurationMinutes > 59:
		return model.TimePackage{}, "durationHours must be >= 0 and durationMinutes 0-59"
	case r.DurationHours == 0 && r.DurationMinutes == 0:
		return model.TimePackage{}, "duration must be positive"
	case r.Price == nil || r.Price.IsNegative():
		return model.TimePackage{}, "price must be a non-negative amount"
	}
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return model.TimePackage{
		Name:            name,
		DurationHours:   r.DurationHours,
		DurationMinutes: r.DurationMinutes,
		Price:           *r.Price,
		IsActive:        active,
	}, ""
}

// ListActive handles the public GET /v1/time-packages.
func (h *TimePackageHandler) ListActive(c echo.Context) error {
	return h.list(c, true)
}

// ListAll handles the admin GET /v1/admin/time-packages, retired ones
// included.
func (h *TimePackageHandler) ListAll(c echo.Context) error {
	return h.list(c, false)
}

func (h *TimePackageHandler) list(c echo.Context, activeOnly bool) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Packages.List(ctx, activeOnly)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /v1/time-packages.
func (h *TimePackageHandler) Create(c echo.Context) error {
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Packages.Create(ctx, p)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /v1/time-packages/:id.
func (h *TimePackageHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	p, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Packages.Update(ctx, p)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/time-packages/:id.
func (h *TimePackageHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Packages.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
