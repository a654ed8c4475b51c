// handlers_history.go - Build history and scene snapshot handlers
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/history"
)

const maxHistoryLimit = 500

// HandleHistory returns recent builds, newest first.
func (h *Handler) HandleHistory(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.builds.History().Recent(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleHistoryEntry returns one recorded build.
func (h *Handler) HandleHistoryEntry(c echo.Context) error {
	id := c.Param("id")
	entry, err := h.builds.History().Get(c.Request().Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		return NewNotFoundError("build", id)
	}
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	return c.JSON(http.StatusOK, entry)
}

// HandleSceneSnapshot dumps the in-memory scene as msgpack, or JSON with
// ?format=json.
func (h *Handler) HandleSceneSnapshot(c echo.Context) error {
	if h.snapshots == nil {
		return NewConflictError("scene snapshots are only available in memory mode")
	}
	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, h.snapshots.Snapshot())
	}
	data, err := h.snapshots.EncodeSnapshot()
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}
