// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	hostMode string
	host     Pinger
}

// NewHealthHandler creates a new health handler. host may be nil.
func NewHealthHandler(version, hostMode string, host Pinger) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		hostMode: hostMode,
		host:     host,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"hostMode": h.hostMode,
	}
	if h.host != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.host.Ping(ctx); err != nil {
			resp["host"] = "unreachable"
			resp["hostError"] = err.Error()
		} else {
			resp["host"] = "connected"
		}
	}
	return c.JSON(http.StatusOK, resp)
}
