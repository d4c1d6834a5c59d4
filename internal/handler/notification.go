package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// FeedHandler serves notifications and the activity feed.
type FeedHandler struct {
	Notifications *repository.NotificationRepo
	Activity      *repository.ActivityRepo
	Log           *zap.Logger
}

func NewFeedHandler(n *repository.NotificationRepo, a *repository.ActivityRepo, log *zap.Logger) *FeedHandler {
	return &FeedHandler{Notifications: n, Activity: a, Log: log}
}

// scope is nil for admins (everything) and the caller's id otherwise.
func scope(c echo.Context) *uint64 {
	if middleware.Role(c) == model.RoleAdmin {
		return nil
	}
	id, _ := middleware.MemberID(c)
	return &id
}

// ListNotifications handles GET /v1/notifications.
func (h *FeedHandler) ListNotifications(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Notifications.List(ctx, scope(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *FeedHandler) MarkRead(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Notifications.MarkRead(ctx, id, scope(c)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListActivity handles GET /v1/activity?limit= (admin), newest first.
func (h *FeedHandler) ListActivity(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Activity.List(ctx, limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}
