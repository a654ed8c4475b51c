package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/logging"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/session"
	"github.com/shadercreator/backend/internal/validation"
)

// Handler handles API requests.
type Handler struct {
	builds    BuildService
	snapshots Snapshotter
	log       logging.Interface
}

// NewHandler creates a new API handler. snapshots is nil when the scene
// cannot be dumped (commandPort mode).
func NewHandler(builds BuildService, snapshots Snapshotter, log logging.Interface) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{
		builds:    builds,
		snapshots: snapshots,
		log:       log,
	}
}

// ValidateResponse is the body of POST /validate.
type ValidateResponse struct {
	Report     *models.ValidationReport `json:"report"`
	Diagnostic string                   `json:"diagnostic"`
	Text       string                   `json:"text"`
	Blocking   bool                     `json:"blocking"`
}

func newValidateResponse(report *models.ValidationReport, blocking bool) ValidateResponse {
	return ValidateResponse{
		Report:     report,
		Diagnostic: validation.FormatHTML(report),
		Text:       validation.FormatText(report),
		Blocking:   blocking,
	}
}

// buildStatusCode maps a finished build to its HTTP status.
func buildStatusCode(b *models.BuildSession) int {
	switch b.Status {
	case models.BuildStatusBlocked:
		return http.StatusUnprocessableEntity
	case models.BuildStatusFailed:
		return http.StatusBadGateway
	default:
		return http.StatusCreated
	}
}

// specError converts an orchestrator error into an APIError.
func specError(err error) *APIError {
	switch {
	case errors.Is(err, session.ErrInvalidSpec):
		return NewBadRequestError("invalid shader spec", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError("request cancelled")
	default:
		return NewHostError("scene query failed", err)
	}
}

// HandleShaderTypes lists the shader node types the host offers.
func (h *Handler) HandleShaderTypes(c echo.Context) error {
	types, err := h.builds.ShaderTypes(c.Request().Context())
	if err != nil {
		return NewHostError("failed to list shader types", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"types": types,
	})
}

// HandleProfiles returns the shader family table.
func (h *Handler) HandleProfiles(c echo.Context) error {
	reg := h.builds.Profiles()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"defaultFamily": reg.DefaultFamily(),
		"families":      reg.Profiles(),
	})
}

// HandleValidate runs the pre-build checks without touching the scene.
func (h *Handler) HandleValidate(c echo.Context) error {
	var spec models.ShaderSpec
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	report, blocking, err := h.builds.Validate(c.Request().Context(), spec)
	if err != nil {
		return specError(err)
	}
	return c.JSON(http.StatusOK, newValidateResponse(report, blocking))
}

// HandleCreateShader runs one build. Blocked builds answer 422 and failed
// builds 502, both with the session as the body.
func (h *Handler) HandleCreateShader(c echo.Context) error {
	var spec models.ShaderSpec
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if spec.ShaderType == "" {
		return NewValidationError("shaderType")
	}

	b, err := h.builds.Create(c.Request().Context(), spec, nil)
	if err != nil {
		return specError(err)
	}
	return c.JSON(buildStatusCode(b), b)
}

// HandleGetShader returns one build session.
func (h *Handler) HandleGetShader(c echo.Context) error {
	id := c.Param("id")
	b, ok := h.builds.Get(id)
	if !ok {
		return NewNotFoundError("build", id)
	}
	return c.JSON(http.StatusOK, b)
}
