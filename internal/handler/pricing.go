package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

// PricingHandler serves price quotes and happy-hour administration.
type PricingHandler struct {
	Calc  *pricing.Calculator
	Hours *service.HappyHours
	Log   *zap.Logger
}

func NewPricingHandler(calc *pricing.Calculator, hours *service.HappyHours, log *zap.Logger) *PricingHandler {
	return &PricingHandler{Calc: calc, Hours: hours, Log: log}
}

type quoteResp struct {
	OriginalPrice   string           `json:"originalPrice"`
	DiscountedPrice string           `json:"discountedPrice"`
	HappyHour       *model.HappyHour `json:"happyHour"`
	IsHappyHour     bool             `json:"isHappyHour"`
}

type happyHourReq struct {
	Name            string `json:"name"`
	DaysOfWeek      []int  `json:"daysOfWeek"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DiscountPercent int    `json:"discountPercent"`
	IsActive        *bool  `json:"isActive"`
}

func (r happyHourReq) toModel() model.HappyHour {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return model.HappyHour{
		Name:            strings.TrimSpace(r.Name),
		DaysOfWeek:      r.DaysOfWeek,
		StartTime:       strings.TrimSpace(r.StartTime),
		EndTime:         strings.TrimSpace(r.EndTime),
		DiscountPercent: r.DiscountPercent,
		IsActive:        active,
	}
}

// Calculate handles GET /v1/pricing/calculate?price=.
func (h *PricingHandler) Calculate(c echo.Context) error {
	price, err := decimal.NewFromString(strings.TrimSpace(c.QueryParam("price")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a decimal number"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	q, err := h.Calc.Calculate(ctx, price)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, quoteResp{
		OriginalPrice:   q.OriginalPrice.StringFixed(2),
		DiscountedPrice: q.DiscountedPrice.StringFixed(2),
		HappyHour:       q.HappyHour,
		IsHappyHour:     q.IsHappyHour,
	})
}

// Current handles GET /v1/happy-hours/current; the body is null outside
// every window.
func (h *PricingHandler) Current(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	hh, err := h.Calc.Current(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, hh)
}

// List handles GET /v1/happy-hours.
func (h *PricingHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Hours.List(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /v1/happy-hours.
func (h *PricingHandler) Create(c echo.Context) error {
	var req happyHourReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hh, err := h.Hours.Create(ctx, req.toModel())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, hh)
}

// Update handles PUT /v1/happy-hours/:id.
func (h *PricingHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req happyHourReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hh, err := h.Hours.Update(ctx, id, req.toModel())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, hh)
}

// Delete handles DELETE /v1/happy-hours/:id.
func (h *PricingHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Hours.Delete(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
