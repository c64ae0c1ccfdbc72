package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global zerolog logger instance.
var Logger zerolog.Logger

// InitLogger sets up the package-level Logger with the configured level,
// writing human-readable output to stderr. Defaults to info on a bad level.
func InitLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	Logger = zerolog.New(console).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
