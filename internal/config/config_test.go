package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)
	assert.Equal(t, Config{
		DBPath:       "/var/lib/imagespec/configs.db",
		LogLevel:     "debug",
		LogFormat:    "json",
		Platform:     "linux/arm64/v8",
		FetchTimeout: 30 * time.Second,
	}, cfg)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "imagespec.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.True(t, strings.HasPrefix(cfg.Platform, "linux/"))
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("IMAGESPEC_DBPATH", "/tmp/env.db")
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfig("testdataInvalid")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"chatty", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, Config{LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "digest", "sha256:abc")
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"digest":"sha256:abc"`)

	_, err = NewLogger(&buf, Config{LogLevel: "info", LogFormat: "xml"})
	assert.Error(t, err)
	_, err = NewLogger(&buf, Config{LogLevel: "loud"})
	assert.Error(t, err)
}
