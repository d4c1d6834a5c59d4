package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrInsufficientBalance, http.StatusBadRequest},
		{service.ErrInvalidAmount, http.StatusBadRequest},
		{repository.ErrManualOccupy, http.StatusBadRequest},
		{pricing.ErrWindowCrossesMidnight, http.StatusBadRequest},
		{repository.ErrMemberNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", repository.ErrSessionNotFound), http.StatusNotFound},
		{repository.ErrTerminalBusy, http.StatusConflict},
		{repository.ErrUsernameTaken, http.StatusConflict},
		{fmt.Errorf("%w: PC-1 is Offline", service.ErrTerminalUnavailable), http.StatusConflict},
		{fmt.Errorf("%w: %q", pricing.ErrWindowOverlap, "Lunch"), http.StatusConflict},
		{repository.ErrForbidden, http.StatusForbidden},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		assert.NoError(t, writeError(c, zap.NewNop(), tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestWriteErrorBody(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = writeError(c, zap.NewNop(), repository.ErrInsufficientBalance)
	assert.JSONEq(t, `{"error":"Insufficient balance"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = writeError(c, zap.NewNop(), errors.New("password=hunter2 leaked"))
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for raw, want := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false, "": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, ok := parseID(c, "id")
		assert.Equal(t, want, ok, raw)
	}
}
