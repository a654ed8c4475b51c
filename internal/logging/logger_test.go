package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shadercreator/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Advanced.LogFile = ""
	cfg.Advanced.ColorMode = config.ColorNever
	l, err := NewLogger(cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Advanced.ColorMode = config.ColorNever
	cfg.Advanced.LogFile = filepath.Join(dir, "logs", "service.log")
	l, err := NewLogger(cfg)
	require.NoError(t, err)

	l.Info("to file")
	l.Debug("hidden at info level")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.Advanced.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[INFO] to file")
	assert.NotContains(t, string(b), "hidden")
}

func TestLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, LevelWarn, false)

	l.Debug("d")
	l.Info("i")
	l.Success("s")
	l.Warn("w %d", 1)
	l.Error("e %s", "x")

	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), "[WARN] w 1")
	assert.Contains(t, errOut.String(), "[ERROR] e x")

	out.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	assert.Contains(t, out.String(), "[DEBUG] now visible")
}

func TestColor(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, LevelInfo, true)
	l.Success("built")
	assert.Contains(t, out.String(), "\033[1;92m[SUCCESS]\033[0m built")

	out.Reset()
	plain := New(&out, &out, LevelInfo, false)
	plain.Success("built")
	assert.NotContains(t, out.String(), "\033[")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" warn ":  LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestColorEnabled(t *testing.T) {
	assert.True(t, colorEnabled(config.ColorAlways, nil))
	assert.False(t, colorEnabled(config.ColorNever, os.Stdout))
	assert.False(t, colorEnabled(config.ColorAuto, nil))
}

func TestDiscard(t *testing.T) {
	d := Discard()
	d.Debug("x")
	d.Info("x")
	d.Success("x")
	d.Warn("x")
	d.Error("x")
}
