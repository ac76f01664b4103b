// Package config reads runtime configuration for the CLI and the development
// backend.
//
// Values come from environment variables. An optional .env file in the
// working directory is loaded first with godotenv; variables already set in
// the real environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
	DefaultPort    = 8080
	DefaultDBPath  = "data/hangang.db"
)

// Client configures the sync client and the CLI.
type Client struct {
	BaseURL   string        // backend root, e.g. http://192.168.0.10:8000
	Timeout   time.Duration // per-request timeout; there are no retries
	PrefsPath string        // sqlite file holding the persisted session
	LogLevel  slog.Level
}

// Server configures the development backend.
type Server struct {
	Port        int
	DBPath      string
	LogLevel    slog.Level
	SeedMarkers bool // insert sample markers when the table is empty
}

// LoadDotEnv loads the given files (default ".env") into the process
// environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

// LoadClient reads HANGANG_BASE_URL, HANGANG_TIMEOUT, HANGANG_PREFS_PATH and
// LOG_LEVEL.
func LoadClient() (Client, error) {
	cfg := Client{
		BaseURL:  DefaultBaseURL,
		Timeout:  DefaultTimeout,
		LogLevel: slog.LevelInfo,
	}

	if v := os.Getenv("HANGANG_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return Client{}, fmt.Errorf("config: HANGANG_BASE_URL %q: %w", cfg.BaseURL, err)
	}

	if v := os.Getenv("HANGANG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Client{}, fmt.Errorf("config: invalid HANGANG_TIMEOUT %q", v)
		}
		cfg.Timeout = d
	}

	cfg.PrefsPath = os.Getenv("HANGANG_PREFS_PATH")
	if cfg.PrefsPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.PrefsPath = filepath.Join(dir, "hangang", "prefs.db")
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
	if err != nil {
		return Client{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// LoadServer reads PORT, DB_PATH, LOG_LEVEL and SEED_MARKERS.
func LoadServer() (Server, error) {
	cfg := Server{
		Port:        DefaultPort,
		DBPath:      DefaultDBPath,
		LogLevel:    slog.LevelDebug,
		SeedMarkers: true,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Server{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SEED_MARKERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Server{}, fmt.Errorf("config: invalid SEED_MARKERS %q", v)
		}
		cfg.SeedMarkers = b
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelDebug)
	if err != nil {
		return Server{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func parseLevel(v string, def slog.Level) (slog.Level, error) {
	if v == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return def, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
	}
	return level, nil
}
