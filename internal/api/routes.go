// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/logging"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Builds         BuildService
	Snapshots      Snapshotter
	Host           Pinger
	Log            logging.Interface
	Version        string
	HostMode       string
	MaxMessageSize int64
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Shaders   ShaderHandler
	Textures  TextureHandler
	History   HistoryHandler
	WebSocket *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	h := NewHandler(deps.Builds, deps.Snapshots, deps.Log)
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.HostMode, deps.Host),
		Shaders:   h,
		Textures:  h,
		History:   h,
		WebSocket: NewWebSocketHandler(h, deps.MaxMessageSize),
	}
}

// RegisterRoutes registers all API routes on the /api group
func RegisterRoutes(g *echo.Group, handlers *Handlers) {
	// Health check
	g.GET("/health", handlers.Health.HandleHealth)

	// Shader routes
	g.GET("/shader-types", handlers.Shaders.HandleShaderTypes)
	g.GET("/profiles", handlers.Shaders.HandleProfiles)
	g.POST("/validate", handlers.Shaders.HandleValidate)
	g.POST("/shaders", handlers.Shaders.HandleCreateShader)
	g.GET("/shaders/:id", handlers.Shaders.HandleGetShader)

	// Texture routes
	texGroup := g.Group("/textures")
	texGroup.GET("/filter", handlers.Textures.HandleFilter)
	texGroup.POST("/classify", handlers.Textures.HandleClassify)
	texGroup.POST("/relate", handlers.Textures.HandleRelate)
	texGroup.POST("/udim", handlers.Textures.HandleUDIM)

	// History and scene routes
	g.GET("/history", handlers.History.HandleHistory)
	g.GET("/history/:id", handlers.History.HandleHistoryEntry)
	g.GET("/scene/snapshot", handlers.History.HandleSceneSnapshot)

	// WebSocket build channel
	g.GET("/ws", handlers.WebSocket.HandleWebSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
