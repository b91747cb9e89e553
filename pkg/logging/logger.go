// Package logging wires zerolog for marketsync runs. Terminals get console
// output and everything else JSON, so a cron run leaves one machine-readable
// record per event. Account pipelines carry their run, account and stage on
// the context logger:
//
//	ctx = logging.WithAccount(ctx, "yandex-fbs", "yandex")
//	logging.FromContext(ctx).Debug().Int("batch", 2).Msg("Submitting stocks")
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger serves library callers until the command installs its own.
var defaultLogger = NewLoggerFromConfig(EnvConfig())

// EnvConfig reads the logger switches a library caller can set without the
// command: LOG_LEVEL (or DEBUG), LOG_FORMAT and NO_COLOR.
func EnvConfig() *Config {
	level := os.Getenv("LOG_LEVEL")
	if level == "" && os.Getenv("DEBUG") != "" {
		level = "debug"
	}
	return &Config{
		Level:   level,
		Format:  getEnvOrDefault("LOG_FORMAT", "auto"),
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including the one behind
// zerolog/log.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}
