package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBPath       string        `mapstructure:"dbPath"`
	LogLevel     string        `mapstructure:"logLevel"`
	LogFormat    string        `mapstructure:"logFormat"`
	Platform     string        `mapstructure:"platform"`
	FetchTimeout time.Duration `mapstructure:"fetchTimeout"`
}

// LoadConfig reads configuration from an optional imagespec.{yaml,json} file
// in path and from IMAGESPEC_* environment variables. A missing file is not
// an error; a malformed one is.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("imagespec")

	v.SetDefault("dbPath", "imagespec.db")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "text")
	v.SetDefault("platform", fmt.Sprintf("linux/%s", runtime.GOARCH))
	v.SetDefault("fetchTimeout", 2*time.Minute)

	v.SetEnvPrefix("IMAGESPEC")
	v.AutomaticEnv()

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return
	}

	err = v.Unmarshal(&config)
	return
}

// ParseLevel translates a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.ToUpper(level)))
	return l, err
}

// NewLogger builds the process logger for the configured level and format.
func NewLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
}
