package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes zerolog with the specified configuration
func InitLogger(service string, level string, format string) {
	initLogger(os.Stderr, service, level, format)
}

func initLogger(out io.Writer, service string, level string, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if format == "json" {
		log.Logger = zerolog.New(out).With().
			Timestamp().
			Caller().
			Logger()
	} else {
		// Console format (default) - these tools are run by hand
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}).With().Timestamp().Logger()
	}

	log.Logger = log.With().
		Str("service", service).
		Logger()
}

// NotifierLogger creates a logger for the deployment run orchestration
func NotifierLogger(runID string) zerolog.Logger {
	return log.With().
		Str("run_id", runID).
		Str("component", "notifier").
		Logger()
}

// CompassLogger creates a logger for Compass API operations
func CompassLogger() zerolog.Logger {
	return log.With().
		Str("component", "compass").
		Logger()
}

// ForgeLogger creates a logger for Forge CLI invocations
func ForgeLogger() zerolog.Logger {
	return log.With().
		Str("component", "forge").
		Logger()
}

// GitHubLogger creates a logger for GitHub API operations
func GitHubLogger() zerolog.Logger {
	return log.With().
		Str("component", "github").
		Logger()
}

// SyncLogger creates a logger for sibling file sync
func SyncLogger() zerolog.Logger {
	return log.With().
		Str("component", "sync").
		Logger()
}
