// Package handler adapts HTTP requests to the service layer and maps its
// errors to status codes.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

const requestTimeout = 5 * time.Second

// badRequest lists the errors that mean the caller sent something invalid.
var badRequest = []error{
	repository.ErrInsufficientBalance,
	repository.ErrManualOccupy,
	repository.ErrInvalidStatus,
	service.ErrInvalidAmount,
	service.ErrInvalidCost,
	pricing.ErrInvalidPrice,
	pricing.ErrInvalidClockTime,
	pricing.ErrWindowCrossesMidnight,
	pricing.ErrInvalidDays,
	pricing.ErrInvalidDiscount,
}

// writeError maps domain errors to an HTTP status with an
// {"error": message} body. Unknown errors are logged and reported as 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, pricing.ErrWindowOverlap):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
