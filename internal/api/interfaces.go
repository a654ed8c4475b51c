// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/history"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/profile"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/session"
)

// ShaderHandler handles shader type listing, validation and builds
type ShaderHandler interface {
	HandleShaderTypes(c echo.Context) error
	HandleProfiles(c echo.Context) error
	HandleValidate(c echo.Context) error
	HandleCreateShader(c echo.Context) error
	HandleGetShader(c echo.Context) error
}

// TextureHandler handles texture path inspection
type TextureHandler interface {
	HandleFilter(c echo.Context) error
	HandleClassify(c echo.Context) error
	HandleRelate(c echo.Context) error
	HandleUDIM(c echo.Context) error
}

// HistoryHandler handles build history and scene snapshots
type HistoryHandler interface {
	HandleHistory(c echo.Context) error
	HandleHistoryEntry(c echo.Context) error
	HandleSceneSnapshot(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// BuildService defines the orchestrator surface the handlers use.
// This allows mocking in tests
type BuildService interface {
	Create(ctx context.Context, spec models.ShaderSpec, progress session.ProgressFunc) (*models.BuildSession, error)
	Get(id string) (*models.BuildSession, bool)
	Validate(ctx context.Context, spec models.ShaderSpec) (*models.ValidationReport, bool, error)
	Relate(anchorPath string) (map[models.TextureRole]string, error)
	ShaderTypes(ctx context.Context) ([]string, error)
	Profiles() *profile.Registry
	History() history.Recorder
}

var _ BuildService = (*session.Manager)(nil)

// Snapshotter is implemented by scenes that can dump their graph.
type Snapshotter interface {
	Snapshot() scene.Snapshot
	EncodeSnapshot() ([]byte, error)
}

// Pinger is implemented by scenes with a live connection to check.
type Pinger interface {
	Ping(ctx context.Context) error
}
