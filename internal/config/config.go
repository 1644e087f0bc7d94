// Package config reads process settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings
type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DataSource is a dataset file path or http(s) URL.
	DataSource string

	CanvasWidth  float64
	CanvasHeight float64

	// Encoder cutoffs. Zero keeps the encoder's defaults.
	LowerCutoff float64
	UpperCutoff float64

	PlaybackInterval time.Duration
}

// Load reads the given .env files, if present, and then the environment.
// Values already in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone
func FromEnv() (Config, error) {
	appEnv := envString("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := ParseLogLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:     appEnv,
		LogLevel:   level,
		HTTPAddr:   envString("HTTP_ADDR", ":8080"),
		DataSource: envString("DATA_SOURCE", "data/ridership.json"),
	}

	if cfg.CanvasWidth, err = envFloat("CANVAS_WIDTH", 900); err != nil {
		return Config{}, err
	}
	if cfg.CanvasHeight, err = envFloat("CANVAS_HEIGHT", 900); err != nil {
		return Config{}, err
	}
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		return Config{}, fmt.Errorf("canvas must be positive, got %vx%v", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.LowerCutoff, err = envFloat("LOWER_CUTOFF", 0); err != nil {
		return Config{}, err
	}
	if cfg.UpperCutoff, err = envFloat("UPPER_CUTOFF", 0); err != nil {
		return Config{}, err
	}

	interval := envString("PLAYBACK_INTERVAL", "1s")
	cfg.PlaybackInterval, err = time.ParseDuration(interval)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PLAYBACK_INTERVAL %q: %w", interval, err)
	}
	if cfg.PlaybackInterval <= 0 {
		return Config{}, fmt.Errorf("PLAYBACK_INTERVAL must be positive, got %s", cfg.PlaybackInterval)
	}

	return cfg, nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
