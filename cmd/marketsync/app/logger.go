package app

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/marketsync/pkg/logging"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// NewLogger builds the command logger. Debug and trace runs also record the
// calling file and line.
func NewLogger(config *Config) zerolog.Logger {
	level, complaint := logLevel(config)
	if complaint != "" {
		fmt.Fprintln(os.Stderr, "Warning: "+complaint)
	}

	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
	})
}

// logLevel resolves the level a run logs at. An explicit level (--log-level,
// LOG_LEVEL or log_level) wins, then -q, then -v. The second result is set
// when the level is unknown or the shortcuts contradict each other.
func logLevel(config *Config) (string, string) {
	if config.LogLevel != "" {
		level := strings.ToLower(strings.TrimSpace(config.LogLevel))
		if !slices.Contains(logLevels, level) {
			return "info", fmt.Sprintf("unknown log level %q, logging at info", config.LogLevel)
		}
		return level, ""
	}

	switch {
	case config.Quiet && config.Verbose:
		return "warn", "--verbose and --quiet both given, logging at warn"
	case config.Quiet:
		return "warn", ""
	case config.Verbose:
		return "debug", ""
	default:
		return "info", ""
	}
}
