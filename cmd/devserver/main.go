// Command devserver runs a local stand-in for the Hangang park backend.
//
// It serves the same routes and envelopes as the mobile backend from a
// SQLite file, so the sync client and the hangang CLI can be exercised
// without network access to the real server.
//
// Configuration comes from the environment (or a .env file):
//
//	PORT          listen port (default 8080)
//	DB_PATH       SQLite file (default data/hangang.db)
//	LOG_LEVEL     debug, info, warn or error (default debug)
//	SEED_MARKERS  insert sample map markers into an empty table (default true)
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/hangang/internal/config"
	"github.com/sakif/hangang/internal/server"
)

func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		bootLogger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
