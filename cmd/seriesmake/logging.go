package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

var (
	logger *slog.Logger

	// Log level mapping
	logLevelMap = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// initLogging sets up structured logging on stderr. Every line carries a
// per-invocation run id so interleaved batch logs can be pulled apart.
func initLogging(level string) error {
	lvl, ok := logLevelMap[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	logger = slog.New(handler).With("run", uuid.NewString())
	slog.SetDefault(logger)
	return nil
}
