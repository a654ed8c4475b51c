// Package config provides XML-based configuration management for the shader service.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Host modes
const (
	HostModeCommandPort = "commandport"
	HostModeMemory      = "memory"
)

// Color modes for console logging
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ShaderCreator"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Host application connection
	Host HostConfig `xml:"Host"`

	// Shader family profiles
	Profiles ProfilesConfig `xml:"Profiles"`

	// Pre-build validation rules
	Validation ValidationConfig `xml:"Validation"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port"`
	BindAddress       string `xml:"BindAddress"`
	EnableCORS        bool   `xml:"EnableCORS"`
	AllowOrigins      string `xml:"AllowOrigins"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit"`
	EnableCompression bool   `xml:"EnableCompression"`
	CompressionLevel  int    `xml:"CompressionLevel"`
}

// HostConfig selects how scene commands reach the host application
type HostConfig struct {
	Mode               string `xml:"Mode"`
	CommandPortAddress string `xml:"CommandPortAddress"`
	DialTimeout        int    `xml:"DialTimeoutSeconds"`
	IOTimeout          int    `xml:"IOTimeoutSeconds"`
}

// ProfilesConfig points at an optional profile table override
type ProfilesConfig struct {
	File          string `xml:"File"`
	DefaultFamily string `xml:"DefaultFamily"`
}

// ValidationConfig contains the pre-build check rules
type ValidationConfig struct {
	ForbiddenCharacters   string `xml:"ForbiddenCharacters"`
	SurfaceTypes          string `xml:"SurfaceTypes"`
	BlockOnNameError      bool   `xml:"BlockOnNameError"`
	BlockOnSelectionError bool   `xml:"BlockOnSelectionError"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory   string `xml:"DataDirectory"`
	HistoryDatabase string `xml:"HistoryDatabase"`
	EnableHistory   bool   `xml:"EnableHistory"`
	TextureRoot     string `xml:"TextureRoot"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	LogFile                 string `xml:"LogFile"`
	ColorMode               string `xml:"ColorMode"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	MaxSessions             int    `xml:"MaxSessions"`
	DuckDBThreads           int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8089,
			BindAddress:       "127.0.0.1",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadTimeout:       30,
			WriteTimeout:      30,
			IdleTimeout:       120,
			BodyLimit:         "4M",
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Host: HostConfig{
			Mode:               HostModeCommandPort,
			CommandPortAddress: "127.0.0.1:7001",
			DialTimeout:        5,
			IOTimeout:          30,
		},
		Profiles: ProfilesConfig{
			File:          "",
			DefaultFamily: "",
		},
		Validation: ValidationConfig{
			ForbiddenCharacters:   "@!#$%^&*()<>?/\\|}{~:´",
			SurfaceTypes:          "mesh,nurbsSurface",
			BlockOnNameError:      true,
			BlockOnSelectionError: true,
		},
		Storage: StorageConfig{
			DataDirectory:   "./data",
			HistoryDatabase: "./data/history.duckdb",
			EnableHistory:   true,
			TextureRoot:     "",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			LogFile:                 "",
			ColorMode:               ColorAuto,
			EnableRequestLogging:    true,
			MaxSessions:             200,
			DuckDBThreads:           2,
			DuckDBMemoryLimit:       "256MB",
			WebSocketMaxMessageSize: 1024,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		if err := config.Validate(); err != nil {
			return nil, err
		}
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Shader Creator Service Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// reMemoryLimit matches the sizes DuckDB accepts for memory_limit.
var reMemoryLimit = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?\s*(?i:b|kb|mb|gb|tb|kib|mib|gib|tib)$`)

// Validate checks enumerated settings
func (c *AppConfig) Validate() error {
	switch c.Host.Mode {
	case HostModeCommandPort, HostModeMemory:
	default:
		return fmt.Errorf("invalid host mode %q (want %s or %s)", c.Host.Mode, HostModeCommandPort, HostModeMemory)
	}
	switch c.Advanced.ColorMode {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q", c.Advanced.ColorMode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Advanced.DuckDBMemoryLimit != "" && !reMemoryLimit.MatchString(c.Advanced.DuckDBMemoryLimit) {
		return fmt.Errorf("invalid DuckDB memory limit %q", c.Advanced.DuckDBMemoryLimit)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.HistoryDatabase = filepath.Join(dataDir, "history.duckdb")
	}

	// MAYA_COMMAND_PORT override, "host:port" or a bare port
	if addr := os.Getenv("MAYA_COMMAND_PORT"); addr != "" {
		if _, err := strconv.Atoi(addr); err == nil {
			addr = "127.0.0.1:" + addr
		}
		c.Host.CommandPortAddress = addr
	}

	if mode := os.Getenv("SHADER_HOST_MODE"); mode != "" {
		c.Host.Mode = strings.ToLower(mode)
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.HistoryDatabase)
	resolve(&c.Storage.TextureRoot)
	resolve(&c.Profiles.File)
	resolve(&c.Advanced.LogFile)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetSurfaceTypes splits the comma-separated surface type list
func (c *AppConfig) GetSurfaceTypes() []string {
	var out []string
	for _, t := range strings.Split(c.Validation.SurfaceTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory}
	if c.Storage.EnableHistory && c.Storage.HistoryDatabase != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.HistoryDatabase))
	}
	if c.Advanced.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.Advanced.LogFile))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
