package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shadercreator/backend/internal/api"
	"github.com/shadercreator/backend/internal/config"
	"github.com/shadercreator/backend/internal/history"
	"github.com/shadercreator/backend/internal/logging"
	"github.com/shadercreator/backend/internal/profile"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/session"
	"github.com/shadercreator/backend/internal/storage"
	"github.com/shadercreator/backend/internal/validation"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// host bundles the scene with the optional capabilities the API exposes.
type host struct {
	scene     scene.Scene
	snapshots api.Snapshotter
	pinger    api.Pinger
	close     func() error
}

func newHost(cfg *config.AppConfig) host {
	if cfg.Host.Mode == config.HostModeMemory {
		mem := scene.NewMemoryScene()
		return host{scene: mem, snapshots: mem, close: func() error { return nil }}
	}
	port := scene.NewCommandPort(cfg.Host.CommandPortAddress,
		time.Duration(cfg.Host.DialTimeout)*time.Second,
		time.Duration(cfg.Host.IOTimeout)*time.Second)
	return host{scene: port, pinger: port, close: port.Close}
}

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	configPath := flag.String("config", filepath.Join(exeDir, "ShaderCreator.config"), "path to the XML configuration file")
	flag.Parse()

	// Load XML configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	api.ShowErrorDetails = logging.ParseLevel(cfg.Advanced.LogLevel) == logging.LevelDebug

	// Texture lookups
	textures, err := storage.NewLocalStore(cfg.Storage.TextureRoot)
	if err != nil {
		logger.Error("Failed to initialize texture storage: %v", err)
		os.Exit(1)
	}

	profiles, err := profile.Load(cfg.Profiles.File, cfg.Profiles.DefaultFamily)
	if err != nil {
		logger.Error("Failed to load shader profiles: %v", err)
		os.Exit(1)
	}

	var recorder history.Recorder = history.Nop{}
	if cfg.Storage.EnableHistory {
		store, err := history.Open(cfg.Storage.HistoryDatabase, history.Options{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		})
		if err != nil {
			logger.Warn("History disabled, failed to open %s: %v", cfg.Storage.HistoryDatabase, err)
		} else {
			recorder = store
		}
	}
	defer recorder.Close()

	h := newHost(cfg)
	defer h.close()
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Host.DialTimeout)*time.Second)
		err := h.pinger.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("Host commandPort %s not reachable yet: %v", cfg.Host.CommandPortAddress, err)
		} else {
			logger.Success("Connected to host commandPort %s", cfg.Host.CommandPortAddress)
		}
	}

	opts := validation.DefaultOptions()
	if cfg.Validation.ForbiddenCharacters != "" {
		opts.ForbiddenCharacters = cfg.Validation.ForbiddenCharacters
	}
	if types := cfg.GetSurfaceTypes(); len(types) > 0 {
		opts.SurfaceTypes = types
	}
	opts.BlockOnNameError = cfg.Validation.BlockOnNameError
	opts.BlockOnSelectionError = cfg.Validation.BlockOnSelectionError

	// Initialize build orchestrator
	sessionMgr := session.NewManager(session.Config{
		Scene:       h.scene,
		FS:          textures,
		Profiles:    profiles,
		Validation:  opts,
		History:     recorder,
		Log:         logger,
		MaxSessions: cfg.Advanced.MaxSessions,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/api/ws"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/ws"
		},
		ErrorMessage: "Request timeout - the host took too long to answer",
	}))

	// Compression middleware
	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/api/ws"
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API Routes
	api.RegisterRoutes(e.Group("/api"), api.NewHandlers(&api.Dependencies{
		Builds:         sessionMgr,
		Snapshots:      h.snapshots,
		Host:           h.pinger,
		Log:            logger,
		Version:        Version,
		HostMode:       cfg.Host.Mode,
		MaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	hostDesc := cfg.Host.Mode
	if cfg.Host.Mode == config.HostModeCommandPort {
		hostDesc += " " + cfg.Host.CommandPortAddress
	}
	historyDesc := "disabled"
	if _, ok := recorder.(*history.Store); ok {
		historyDesc = cfg.Storage.HistoryDatabase
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Shader Creator Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Host:       %-45s║\n", hostDesc)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", *configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Profiles:  %-46s║\n", strings.Join(familyNames(profiles), ", "))
	fmt.Printf("║  History:   %-46s║\n", historyDesc)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}

func familyNames(reg *profile.Registry) []string {
	var names []string
	for _, p := range reg.Profiles() {
		names = append(names, p.Name)
	}
	return names
}
