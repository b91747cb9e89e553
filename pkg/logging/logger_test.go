package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/marketsync/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Default().Info().Msg("info message")
	logging.FromContext(context.Background()).Warn().Msg("warning message")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warning message")
}

func TestNewLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		want   []string
		reject []string
	}{
		{name: "debug", level: "debug", want: []string{`"level":"debug"`, `"level":"info"`}},
		{name: "error only", level: "error", want: []string{`"level":"error"`}, reject: []string{`"level":"info"`}},
		{name: "warning alias", level: "warning", want: []string{`"level":"warn"`}, reject: []string{`"level":"info"`}},
		{name: "invalid falls back to info", level: "chatty", want: []string{`"level":"info"`}, reject: []string{`"level":"debug"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tt.level, Format: "json", Output: "discard"})
			logger = logger.Output(buf)

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Warn().Msg("warn")
			logger.Error().Msg("error")

			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.reject {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestConfigFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "info",
		Format: "json",
		Output: "discard",
		Fields: map[string]string{"service": "marketsync"},
	}).Output(buf)

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"service":"marketsync"`)
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("NO_COLOR", "1")

	cfg := logging.EnvConfig()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.True(t, cfg.NoColor)

	// an explicit level beats DEBUG
	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, "error", logging.EnvConfig().Level)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	assert.Equal(t, zerolog.TraceLevel, logging.ParseLevel("TRACE"))
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, logging.ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("bogus"))
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithAccount(ctx, "yandex-fbs", "yandex")
	ctx = logging.WithStage(ctx, "stocks")

	logging.FromContext(ctx).Info().Msg("batch submitted")

	tl.AssertContains(t, `"run_id":"run-1"`)
	tl.AssertContains(t, `"account":"yandex-fbs"`)
	tl.AssertContains(t, `"marketplace":"yandex"`)
	tl.AssertContains(t, `"stage":"stocks"`)
	assert.Equal(t, 1, tl.Count())
}

func TestFromContextDefaults(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.Ctx(logging.WithLogger(context.Background(), nil)))
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	tl.Info().Msg("message 1")
	tl.Error().Msg("message 2")

	tl.AssertContains(t, "message 1")
	tl.AssertNotContains(t, "message 3")
	assert.Equal(t, 2, tl.Count())
	assert.True(t, strings.HasPrefix(tl.Lines()[0], "{"))

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
}
